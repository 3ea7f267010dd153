// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package notify delivers match notifications to participants' devices.
//
// A Dispatcher resolves recipients, builds one Payload and sends it to
// every device through a Transport with bounded concurrency. Tokens that
// fail permanently (ErrUnregistered, ErrBadToken) are cleared from the
// user record; other failures are only logged.
package notify
