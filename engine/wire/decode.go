// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

// Decoder reads arguments from a message body. File descriptors are
// taken from the front of a queue shared across messages of the same
// connection.
type Decoder struct {
	body []byte
	fds  []int
}

// NewDecoder reads body, consuming descriptors from fds.
func NewDecoder(body []byte, fds []int) *Decoder {
	return &Decoder{body: body, fds: fds}
}

func (d *Decoder) Uint() (uint32, error) {
	if len(d.body) < 4 {
		return 0, ErrTruncated
	}
	v := ByteOrder.Uint32(d.body)
	d.body = d.body[4:]
	return v, nil
}

func (d *Decoder) Int() (int32, error) {
	v, err := d.Uint()
	return int32(v), err
}

func (d *Decoder) Fixed() (Fixed, error) {
	v, err := d.Uint()
	return Fixed(v), err
}

// String returns the string and whether it was null.
func (d *Decoder) String() (s string, null bool, err error) {
	length, err := d.Uint()
	if err != nil {
		return "", false, err
	}
	if length == 0 {
		return "", true, nil
	}
	total := int(length) + padding(int(length))
	if len(d.body) < total {
		return "", false, ErrTruncated
	}
	if d.body[length-1] != 0 {
		return "", false, ErrBadString
	}
	s = string(d.body[:length-1])
	d.body = d.body[total:]
	return s, false, nil
}

// Array returns a copy of the array payload.
func (d *Decoder) Array() ([]byte, error) {
	length, err := d.Uint()
	if err != nil {
		return nil, err
	}
	total := int(length) + padding(int(length))
	if len(d.body) < total {
		return nil, ErrTruncated
	}
	out := make([]byte, length)
	copy(out, d.body[:length])
	d.body = d.body[total:]
	return out, nil
}

// FD takes the next descriptor from the queue. The caller owns it.
func (d *Decoder) FD() (int, error) {
	if len(d.fds) == 0 {
		return -1, ErrMissingFD
	}
	fd := d.fds[0]
	d.fds = d.fds[1:]
	return fd, nil
}

// FDs returns the descriptors not yet consumed.
func (d *Decoder) FDs() []int { return d.fds }

// Done reports an error if unread bytes remain.
func (d *Decoder) Done() error {
	if len(d.body) != 0 {
		return ErrTrailingArg
	}
	return nil
}
