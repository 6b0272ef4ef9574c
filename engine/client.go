// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"cmp"
	"errors"
	"fmt"
	"net"
	"slices"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/waybridge/engine/wire"
)

const (
	displayObjectID uint32 = 1

	// serverIDStart is the first id in the server-allocated range.
	serverIDStart uint32 = 0xff000000

	// flushBatchSize caps the bytes handed to a single sendmsg.
	flushBatchSize = 16 * 1024

	// writeTimeout bounds a flush to a client that stopped reading.
	writeTimeout = 2 * time.Second
)

// ErrProtocol wraps the reason a client was disconnected for a
// protocol violation.
var ErrProtocol = errors.New("engine: protocol error")

// Client is one connected display client.
type Client struct {
	display     *Display
	conn        *net.UnixConn
	credentials Credentials

	objects  map[uint32]*Resource
	zombies  map[uint32]*Interface
	userData UserDataMap

	displayResource *Resource
	registries      []*Resource
	nextServerID    uint32

	in    []byte
	inFDs []int
	out   []wire.Message

	// closing is set once the client must be disconnected after the
	// next flush.
	closing    error
	destroying bool
	destroyed  bool
}

func newClient(display *Display, conn *net.UnixConn) *Client {
	client := &Client{
		display:      display,
		conn:         conn,
		objects:      make(map[uint32]*Resource),
		zombies:      make(map[uint32]*Interface),
		nextServerID: serverIDStart,
	}
	credentials, err := peerCredentials(conn)
	if err != nil {
		display.logger.Debug("reading peer credentials", "error", err)
	}
	client.credentials = credentials
	return client
}

// UserData returns the client's sidecar.
func (c *Client) UserData() *UserDataMap { return &c.userData }

// Credentials returns the peer process credentials captured at accept.
func (c *Client) Credentials() Credentials { return c.credentials }

// Display returns the owning display.
func (c *Client) Display() *Display { return c.display }

// Alive reports whether the client is still connected and not
// scheduled for disconnect.
func (c *Client) Alive() bool { return !c.destroyed && c.closing == nil }

// Resource returns the live resource with the given protocol id.
func (c *Client) Resource(id uint32) *Resource { return c.objects[id] }

// Resources returns the client's live resources in creation order.
func (c *Client) Resources() []*Resource {
	resources := make([]*Resource, 0, len(c.objects))
	for _, resource := range c.objects {
		resources = append(resources, resource)
	}
	slices.SortFunc(resources, func(a, b *Resource) int {
		return cmp.Compare(a.key, b.key)
	})
	return resources
}

func (c *Client) String() string {
	return fmt.Sprintf("client(pid=%d)", c.credentials.PID)
}

// CreateResource creates a server-allocated object, for events that
// carry a new_id (wl_data_device.data_offer, for example).
func (c *Client) CreateResource(iface *Interface, version uint32) *Resource {
	id := c.nextServerID
	c.nextServerID++
	return c.newResource(id, iface, version)
}

// Disconnect schedules the client to be dropped after the next flush.
func (c *Client) Disconnect(reason error) {
	if c.closing == nil {
		c.closing = reason
	}
}

func (c *Client) newResource(id uint32, iface *Interface, version uint32) *Resource {
	c.display.nextKey++
	resource := &Resource{
		key:     c.display.nextKey,
		id:      id,
		iface:   iface,
		version: version,
		client:  c,
		alive:   true,
	}
	c.objects[id] = resource
	delete(c.zombies, id)
	return resource
}

func (c *Client) queue(message wire.Message) {
	if c.destroyed {
		closeFDs(message.FDs)
		return
	}
	c.out = append(c.out, message)
}

func (c *Client) postError(object uint32, code uint32, text string) {
	if c.closing != nil || c.destroyed {
		return
	}
	c.display.logger.Warn("protocol error",
		"client", c.String(),
		"object", object,
		"code", code,
		"message", text,
	)
	if err := c.displayResource.Send("error", object, code, text); err != nil {
		c.display.logger.Debug("sending protocol error", "error", err)
	}
	c.closing = fmt.Errorf("%w: %s", ErrProtocol, text)
}

// flush writes queued messages. Descriptors travel with the batch
// containing the message that declared them.
func (c *Client) flush() error {
	for len(c.out) > 0 {
		var data []byte
		var fds []int
		count := 0
		for count < len(c.out) {
			next := c.out[count]
			if count > 0 && (len(data)+len(next.Data) > flushBatchSize ||
				len(fds)+len(next.FDs) > wire.MaxFDsPerMessage) {
				break
			}
			data = append(data, next.Data...)
			fds = append(fds, next.FDs...)
			count++
		}
		c.out = c.out[count:]

		err := c.write(data, fds)
		closeFDs(fds)
		if err != nil {
			for _, pending := range c.out {
				closeFDs(pending.FDs)
			}
			c.out = nil
			return err
		}
	}
	return nil
}

func (c *Client) write(data []byte, fds []int) error {
	// Socket deadlines are wall-clock; the injected clock does not
	// apply to kernel timers.
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}
	written, _, err := c.conn.WriteMsgUnix(data, oob, nil)
	if err != nil {
		return err
	}
	if written < len(data) {
		_, err = c.conn.Write(data[written:])
	}
	return err
}

// receive appends bytes and descriptors read from the socket, then
// dispatches every complete message.
func (c *Client) receive(dispatch any, data []byte, fds []int) {
	c.in = append(c.in, data...)
	c.inFDs = append(c.inFDs, fds...)

	for c.Alive() {
		header, ok, err := wire.ParseHeader(c.in)
		if err != nil {
			c.postError(displayObjectID, DisplayErrorInvalidMethod, err.Error())
			return
		}
		if !ok || len(c.in) < int(header.Size) {
			break
		}
		body := c.in[wire.HeaderSize:header.Size]
		c.handleMessage(dispatch, header, body)
		c.in = c.in[header.Size:]
	}
	if len(c.in) == 0 {
		c.in = nil
	}
}

func (c *Client) handleMessage(dispatch any, header wire.Header, body []byte) {
	resource := c.objects[header.Object]
	if resource == nil {
		if iface, ok := c.zombies[header.Object]; ok {
			c.discard(iface, header.Opcode, body)
			return
		}
		c.postError(displayObjectID, DisplayErrorInvalidObject,
			fmt.Sprintf("invalid object %d", header.Object))
		return
	}

	opcode := int(header.Opcode)
	if opcode >= len(resource.iface.Requests) {
		c.postError(resource.id, DisplayErrorInvalidMethod,
			fmt.Sprintf("invalid method %d, object %s", opcode, resource))
		return
	}
	message := &resource.iface.Requests[opcode]
	if message.Since > resource.version {
		c.postError(resource.id, DisplayErrorInvalidMethod,
			fmt.Sprintf("invalid method %d (since %d < %d), object %s", opcode, resource.version, message.Since, resource))
		return
	}

	raw, remaining, err := DecodeArgs(message, body, c.inFDs)
	c.inFDs = remaining
	if err != nil {
		c.postError(resource.id, DisplayErrorInvalidMethod,
			fmt.Sprintf("%s.%s: %v", resource, message.Name, err))
		return
	}

	request, ok := c.resolve(resource, message, header.Opcode, raw)
	if !ok {
		return
	}
	if resource.onRequest != nil {
		resource.onRequest(dispatch, resource, request)
	}
	if message.Destructor && resource.alive {
		resource.Destroy(dispatch)
	}
	request.closeUntakenFDs()
}

// resolve turns raw ids into resources, validating object types and
// new_id ranges before creating anything.
func (c *Client) resolve(resource *Resource, message *Message, opcode uint16, raw []any) (*Request, bool) {
	request := &Request{
		message: message,
		opcode:  opcode,
		args:    make([]any, len(raw)),
		fdTaken: make([]bool, len(raw)),
	}
	fail := func(code uint32, format string, args ...any) (*Request, bool) {
		request.args = raw
		request.closeUntakenFDs()
		c.postError(resource.id, code, fmt.Sprintf(format, args...))
		return nil, false
	}

	for i, signature := range message.Args {
		switch signature.Type {
		case ArgObject:
			id := raw[i].(uint32)
			target := c.objects[id]
			if id != 0 && target == nil {
				if _, zombie := c.zombies[id]; !zombie {
					return fail(DisplayErrorInvalidObject, "invalid object %d in %s.%s", id, resource, message.Name)
				}
			}
			if target != nil && signature.Interface != "" && target.iface.Name != signature.Interface {
				return fail(DisplayErrorInvalidObject, "%s.%s: %s is not a %s", resource, message.Name, target, signature.Interface)
			}
			request.args[i] = target
		case ArgNewID:
			if newID, untyped := raw[i].(NewID); untyped {
				if !c.freeID(newID.ID) {
					return fail(DisplayErrorInvalidObject, "invalid new id %d", newID.ID)
				}
				request.args[i] = newID
				continue
			}
			id := raw[i].(uint32)
			if !c.freeID(id) {
				return fail(DisplayErrorInvalidObject, "invalid new id %d", id)
			}
			if _, known := LookupInterface(signature.Interface); !known {
				return fail(DisplayErrorImplementation, "unknown interface %s", signature.Interface)
			}
		default:
			request.args[i] = raw[i]
		}
	}

	for i, signature := range message.Args {
		if signature.Type != ArgNewID || signature.Interface == "" {
			continue
		}
		iface, _ := LookupInterface(signature.Interface)
		request.args[i] = c.newResource(raw[i].(uint32), iface, resource.version)
	}
	return request, true
}

func (c *Client) freeID(id uint32) bool {
	if id == 0 || id >= serverIDStart {
		return false
	}
	_, taken := c.objects[id]
	return !taken
}

// discard consumes a message addressed to an object the server has
// already destroyed but the client has not yet seen deleted, closing
// any descriptors it carried.
func (c *Client) discard(iface *Interface, opcode uint16, body []byte) {
	if int(opcode) >= len(iface.Requests) {
		return
	}
	raw, remaining, err := DecodeArgs(&iface.Requests[opcode], body, c.inFDs)
	c.inFDs = remaining
	if err != nil {
		return
	}
	for i, signature := range iface.Requests[opcode].Args {
		if signature.Type == ArgFD {
			closeFDs([]int{raw[i].(int)})
		}
	}
}
