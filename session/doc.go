// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session is the application service behind the HTTP handlers.

	svc := session.NewService(st, cat, dispatcher, session.Config{
		StoreTimeout:  5 * time.Second,
		NotifyTimeout: 30 * time.Second,
	})
	defer svc.Wait()

The service validates input, bounds each store call with StoreTimeout and
starts the match notification in the background when a like completes a
match. Wait blocks until those notifications finish and is called during
shutdown.
*/
package session
