// Package remotestore is a thin client over the networked record collection
// (Firebase Realtime Database REST API) that holds the recent, "hot" tickets.
//
// # Overview
//
// The collection only supports economical full reads, so FetchAll always
// downloads every child of the collection and decodes each body tolerantly
// (see models.FromWire). Writes are single-field patches and batch deletes
// expressed as a PATCH of {id: null, ...} against the collection root.
//
// # Credentials
//
// A TokenProvider is invoked before every request and its value is sent as
// the "auth" query parameter. The client never caches or refreshes tokens;
// that belongs to the provider (see internal/auth).
//
// # Error Handling
//
// Every network failure, non-2xx status or provider error is returned as a
// *TransportError, which matches common.ErrTransport with errors.Is. There
// are no retries.
//
// Typical Usage
//
//	c := remotestore.New(baseURL, "molitura", session.Token, 30*time.Second, logger)
//	records, err := c.FetchAll(ctx)
//	err = c.UpdatePayment(ctx, id, "POS")
//	err = c.DeleteMany(ctx, []string{id1, id2})
package remotestore
