// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

// Core protocol, from wayland.xml.
var (
	DisplayInterface = RegisterInterface(&Interface{
		Name: "wl_display", Version: 1,
		Requests: []Message{
			msg("sync", "callback:n:wl_callback"),
			msg("get_registry", "registry:n:wl_registry"),
		},
		Events: []Message{
			msg("error", "object_id:o code:u message:s"),
			msg("delete_id", "id:u"),
		},
	})

	RegistryInterface = RegisterInterface(&Interface{
		Name: "wl_registry", Version: 1,
		Requests: []Message{
			msg("bind", "name:u id:n"),
		},
		Events: []Message{
			msg("global", "name:u interface:s version:u"),
			msg("global_remove", "name:u"),
		},
	})

	CallbackInterface = RegisterInterface(&Interface{
		Name: "wl_callback", Version: 1,
		Events: []Message{
			destructor(msg("done", "callback_data:u")),
		},
	})

	CompositorInterface = RegisterInterface(&Interface{
		Name: "wl_compositor", Version: 4,
		Requests: []Message{
			msg("create_surface", "id:n:wl_surface"),
			msg("create_region", "id:n:wl_region"),
		},
	})

	ShmPoolInterface = RegisterInterface(&Interface{
		Name: "wl_shm_pool", Version: 1,
		Requests: []Message{
			msg("create_buffer", "id:n:wl_buffer offset:i width:i height:i stride:i format:u"),
			destructor(msg("destroy", "")),
			msg("resize", "size:i"),
		},
	})

	ShmInterface = RegisterInterface(&Interface{
		Name: "wl_shm", Version: 1,
		Requests: []Message{
			msg("create_pool", "id:n:wl_shm_pool fd:h size:i"),
		},
		Events: []Message{
			msg("format", "format:u"),
		},
	})

	BufferInterface = RegisterInterface(&Interface{
		Name: "wl_buffer", Version: 1,
		Requests: []Message{
			destructor(msg("destroy", "")),
		},
		Events: []Message{
			msg("release", ""),
		},
	})

	DataOfferInterface = RegisterInterface(&Interface{
		Name: "wl_data_offer", Version: 3,
		Requests: []Message{
			msg("accept", "serial:u mime_type:?s"),
			msg("receive", "mime_type:s fd:h"),
			destructor(msg("destroy", "")),
			since(3, msg("finish", "")),
			since(3, msg("set_actions", "dnd_actions:u preferred_action:u")),
		},
		Events: []Message{
			msg("offer", "mime_type:s"),
			since(3, msg("source_actions", "source_actions:u")),
			since(3, msg("action", "dnd_action:u")),
		},
	})

	DataSourceInterface = RegisterInterface(&Interface{
		Name: "wl_data_source", Version: 3,
		Requests: []Message{
			msg("offer", "mime_type:s"),
			destructor(msg("destroy", "")),
			since(3, msg("set_actions", "dnd_actions:u")),
		},
		Events: []Message{
			msg("target", "mime_type:?s"),
			msg("send", "mime_type:s fd:h"),
			msg("cancelled", ""),
			since(3, msg("dnd_drop_performed", "")),
			since(3, msg("dnd_finished", "")),
			since(3, msg("action", "dnd_action:u")),
		},
	})

	DataDeviceInterface = RegisterInterface(&Interface{
		Name: "wl_data_device", Version: 3,
		Requests: []Message{
			msg("start_drag", "source:?o:wl_data_source origin:o:wl_surface icon:?o:wl_surface serial:u"),
			msg("set_selection", "source:?o:wl_data_source serial:u"),
			since(2, destructor(msg("release", ""))),
		},
		Events: []Message{
			msg("data_offer", "id:n:wl_data_offer"),
			msg("enter", "serial:u surface:o:wl_surface x:f y:f id:?o:wl_data_offer"),
			msg("leave", ""),
			msg("motion", "time:u x:f y:f"),
			msg("drop", ""),
			msg("selection", "id:?o:wl_data_offer"),
		},
	})

	DataDeviceManagerInterface = RegisterInterface(&Interface{
		Name: "wl_data_device_manager", Version: 3,
		Requests: []Message{
			msg("create_data_source", "id:n:wl_data_source"),
			msg("get_data_device", "id:n:wl_data_device seat:o:wl_seat"),
		},
	})

	ShellInterface = RegisterInterface(&Interface{
		Name: "wl_shell", Version: 1,
		Requests: []Message{
			msg("get_shell_surface", "id:n:wl_shell_surface surface:o:wl_surface"),
		},
	})

	ShellSurfaceInterface = RegisterInterface(&Interface{
		Name: "wl_shell_surface", Version: 1,
		Requests: []Message{
			msg("pong", "serial:u"),
			msg("move", "seat:o:wl_seat serial:u"),
			msg("resize", "seat:o:wl_seat serial:u edges:u"),
			msg("set_toplevel", ""),
			msg("set_transient", "parent:o:wl_surface x:i y:i flags:u"),
			msg("set_fullscreen", "method:u framerate:u output:?o:wl_output"),
			msg("set_popup", "seat:o:wl_seat serial:u parent:o:wl_surface x:i y:i flags:u"),
			msg("set_maximized", "output:?o:wl_output"),
			msg("set_title", "title:s"),
			msg("set_class", "class_:s"),
		},
		Events: []Message{
			msg("ping", "serial:u"),
			msg("configure", "edges:u width:i height:i"),
			msg("popup_done", ""),
		},
	})

	SurfaceInterface = RegisterInterface(&Interface{
		Name: "wl_surface", Version: 4,
		Requests: []Message{
			destructor(msg("destroy", "")),
			msg("attach", "buffer:?o:wl_buffer x:i y:i"),
			msg("damage", "x:i y:i width:i height:i"),
			msg("frame", "callback:n:wl_callback"),
			msg("set_opaque_region", "region:?o:wl_region"),
			msg("set_input_region", "region:?o:wl_region"),
			msg("commit", ""),
			since(2, msg("set_buffer_transform", "transform:i")),
			since(3, msg("set_buffer_scale", "scale:i")),
			since(4, msg("damage_buffer", "x:i y:i width:i height:i")),
		},
		Events: []Message{
			msg("enter", "output:o:wl_output"),
			msg("leave", "output:o:wl_output"),
		},
	})

	SeatInterface = RegisterInterface(&Interface{
		Name: "wl_seat", Version: 5,
		Requests: []Message{
			msg("get_pointer", "id:n:wl_pointer"),
			msg("get_keyboard", "id:n:wl_keyboard"),
			msg("get_touch", "id:n:wl_touch"),
			since(5, destructor(msg("release", ""))),
		},
		Events: []Message{
			msg("capabilities", "capabilities:u"),
			since(2, msg("name", "name:s")),
		},
	})

	PointerInterface = RegisterInterface(&Interface{
		Name: "wl_pointer", Version: 5,
		Requests: []Message{
			msg("set_cursor", "serial:u surface:?o:wl_surface hotspot_x:i hotspot_y:i"),
			since(3, destructor(msg("release", ""))),
		},
		Events: []Message{
			msg("enter", "serial:u surface:o:wl_surface surface_x:f surface_y:f"),
			msg("leave", "serial:u surface:o:wl_surface"),
			msg("motion", "time:u surface_x:f surface_y:f"),
			msg("button", "serial:u time:u button:u state:u"),
			msg("axis", "time:u axis:u value:f"),
			since(5, msg("frame", "")),
			since(5, msg("axis_source", "axis_source:u")),
			since(5, msg("axis_stop", "time:u axis:u")),
			since(5, msg("axis_discrete", "axis:u discrete:i")),
		},
	})

	KeyboardInterface = RegisterInterface(&Interface{
		Name: "wl_keyboard", Version: 5,
		Requests: []Message{
			since(3, destructor(msg("release", ""))),
		},
		Events: []Message{
			msg("keymap", "format:u fd:h size:u"),
			msg("enter", "serial:u surface:o:wl_surface keys:a"),
			msg("leave", "serial:u surface:o:wl_surface"),
			msg("key", "serial:u time:u key:u state:u"),
			msg("modifiers", "serial:u mods_depressed:u mods_latched:u mods_locked:u group:u"),
			since(4, msg("repeat_info", "rate:i delay:i")),
		},
	})

	TouchInterface = RegisterInterface(&Interface{
		Name: "wl_touch", Version: 5,
		Requests: []Message{
			since(3, destructor(msg("release", ""))),
		},
		Events: []Message{
			msg("down", "serial:u time:u surface:o:wl_surface id:i x:f y:f"),
			msg("up", "serial:u time:u id:i"),
			msg("motion", "time:u id:i x:f y:f"),
			msg("frame", ""),
			msg("cancel", ""),
		},
	})

	OutputInterface = RegisterInterface(&Interface{
		Name: "wl_output", Version: 4,
		Requests: []Message{
			since(3, destructor(msg("release", ""))),
		},
		Events: []Message{
			msg("geometry", "x:i y:i physical_width:i physical_height:i subpixel:i make:s model:s transform:i"),
			msg("mode", "flags:u width:i height:i refresh:i"),
			since(2, msg("done", "")),
			since(2, msg("scale", "factor:i")),
			since(4, msg("name", "name:s")),
			since(4, msg("description", "description:s")),
		},
	})

	RegionInterface = RegisterInterface(&Interface{
		Name: "wl_region", Version: 1,
		Requests: []Message{
			destructor(msg("destroy", "")),
			msg("add", "x:i y:i width:i height:i"),
			msg("subtract", "x:i y:i width:i height:i"),
		},
	})

	SubcompositorInterface = RegisterInterface(&Interface{
		Name: "wl_subcompositor", Version: 1,
		Requests: []Message{
			destructor(msg("destroy", "")),
			msg("get_subsurface", "id:n:wl_subsurface surface:o:wl_surface parent:o:wl_surface"),
		},
	})

	SubsurfaceInterface = RegisterInterface(&Interface{
		Name: "wl_subsurface", Version: 1,
		Requests: []Message{
			destructor(msg("destroy", "")),
			msg("set_position", "x:i y:i"),
			msg("place_above", "sibling:o:wl_surface"),
			msg("place_below", "sibling:o:wl_surface"),
			msg("set_sync", ""),
			msg("set_desync", ""),
		},
	})
)

// xdg-shell stable.
var (
	XdgWmBaseInterface = RegisterInterface(&Interface{
		Name: "xdg_wm_base", Version: 3,
		Requests: []Message{
			destructor(msg("destroy", "")),
			msg("create_positioner", "id:n:xdg_positioner"),
			msg("get_xdg_surface", "id:n:xdg_surface surface:o:wl_surface"),
			msg("pong", "serial:u"),
		},
		Events: []Message{
			msg("ping", "serial:u"),
		},
	})

	XdgPositionerInterface = RegisterInterface(&Interface{
		Name: "xdg_positioner", Version: 3,
		Requests: []Message{
			destructor(msg("destroy", "")),
			msg("set_size", "width:i height:i"),
			msg("set_anchor_rect", "x:i y:i width:i height:i"),
			msg("set_anchor", "anchor:u"),
			msg("set_gravity", "gravity:u"),
			msg("set_constraint_adjustment", "constraint_adjustment:u"),
			msg("set_offset", "x:i y:i"),
			since(3, msg("set_reactive", "")),
			since(3, msg("set_parent_size", "parent_width:i parent_height:i")),
			since(3, msg("set_parent_configure", "serial:u")),
		},
	})

	XdgSurfaceInterface = RegisterInterface(&Interface{
		Name: "xdg_surface", Version: 3,
		Requests: []Message{
			destructor(msg("destroy", "")),
			msg("get_toplevel", "id:n:xdg_toplevel"),
			msg("get_popup", "id:n:xdg_popup parent:?o:xdg_surface positioner:o:xdg_positioner"),
			msg("set_window_geometry", "x:i y:i width:i height:i"),
			msg("ack_configure", "serial:u"),
		},
		Events: []Message{
			msg("configure", "serial:u"),
		},
	})

	XdgToplevelInterface = RegisterInterface(&Interface{
		Name: "xdg_toplevel", Version: 3,
		Requests: []Message{
			destructor(msg("destroy", "")),
			msg("set_parent", "parent:?o:xdg_toplevel"),
			msg("set_title", "title:s"),
			msg("set_app_id", "app_id:s"),
			msg("show_window_menu", "seat:o:wl_seat serial:u x:i y:i"),
			msg("move", "seat:o:wl_seat serial:u"),
			msg("resize", "seat:o:wl_seat serial:u edges:u"),
			msg("set_max_size", "width:i height:i"),
			msg("set_min_size", "width:i height:i"),
			msg("set_maximized", ""),
			msg("unset_maximized", ""),
			msg("set_fullscreen", "output:?o:wl_output"),
			msg("unset_fullscreen", ""),
			msg("set_minimized", ""),
		},
		Events: []Message{
			msg("configure", "width:i height:i states:a"),
			msg("close", ""),
		},
	})

	XdgPopupInterface = RegisterInterface(&Interface{
		Name: "xdg_popup", Version: 3,
		Requests: []Message{
			destructor(msg("destroy", "")),
			msg("grab", "seat:o:wl_seat serial:u"),
			since(3, msg("reposition", "positioner:o:xdg_positioner token:u")),
		},
		Events: []Message{
			msg("configure", "x:i y:i width:i height:i"),
			msg("popup_done", ""),
			since(3, msg("repositioned", "token:u")),
		},
	})
)

// linux-dmabuf-unstable-v1 and linux-explicit-synchronization-unstable-v1.
var (
	LinuxDmabufInterface = RegisterInterface(&Interface{
		Name: "zwp_linux_dmabuf_v1", Version: 3,
		Requests: []Message{
			destructor(msg("destroy", "")),
			msg("create_params", "params_id:n:zwp_linux_buffer_params_v1"),
		},
		Events: []Message{
			msg("format", "format:u"),
			since(3, msg("modifier", "format:u modifier_hi:u modifier_lo:u")),
		},
	})

	LinuxBufferParamsInterface = RegisterInterface(&Interface{
		Name: "zwp_linux_buffer_params_v1", Version: 3,
		Requests: []Message{
			destructor(msg("destroy", "")),
			msg("add", "fd:h plane_idx:u offset:u stride:u modifier_hi:u modifier_lo:u"),
			msg("create", "width:i height:i format:u flags:u"),
			since(2, msg("create_immed", "buffer_id:n:wl_buffer width:i height:i format:u flags:u")),
		},
		Events: []Message{
			msg("created", "buffer:n:wl_buffer"),
			msg("failed", ""),
		},
	})

	LinuxExplicitSyncInterface = RegisterInterface(&Interface{
		Name: "zwp_linux_explicit_synchronization_v1", Version: 2,
		Requests: []Message{
			destructor(msg("destroy", "")),
			msg("get_synchronization", "id:n:zwp_linux_surface_synchronization_v1 surface:o:wl_surface"),
		},
	})

	LinuxSurfaceSyncInterface = RegisterInterface(&Interface{
		Name: "zwp_linux_surface_synchronization_v1", Version: 2,
		Requests: []Message{
			destructor(msg("destroy", "")),
			msg("set_acquire_fence", "fd:h"),
			msg("get_release", "release:n:zwp_linux_buffer_release_v1"),
		},
	})

	LinuxBufferReleaseInterface = RegisterInterface(&Interface{
		Name: "zwp_linux_buffer_release_v1", Version: 1,
		Events: []Message{
			destructor(msg("fenced_release", "fence:h")),
			destructor(msg("immediate_release", "")),
		},
	})
)

// Protocol error codes used by the engine and its callers.
const (
	DisplayErrorInvalidObject  uint32 = 0
	DisplayErrorInvalidMethod  uint32 = 1
	DisplayErrorNoMemory       uint32 = 2
	DisplayErrorImplementation uint32 = 3
)
