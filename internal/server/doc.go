// Package server provides HTTP routing, middleware, and the stream endpoint for the audio cache.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with Go 1.22 method patterns,
// so path parameters like /stream/{id} resolve through [http.Request.PathValue].
//
// # Middleware Stack
//
// The serve command installs, in order: request logging, CORS, a global rate
// limiter ([golang.org/x/time/rate], responding 429 when exceeded), and
// bearer-token identification. Identification is not access control: requests
// without a token proceed anonymously, but only identified callers get play
// history recorded.
//
// # Stream Endpoint
//
// [StreamHandler] exposes the acquisition-and-cache pipeline:
//
//	GET    /stream/{id}            serve cached audio (fetching on miss)
//	GET    /stream/info/{id}       metadata snapshot, never fetches
//	DELETE /stream/{id}            drop the cached asset
//	GET    /stream/stats/storage   aggregate cache usage
//	POST   /stream/cleanup         run one eviction pass
//
// Local-backend responses honor Range requests through [http.ServeContent]
// (200 full body, 206 partial, 416 unsatisfiable); the blob backend responds
// with a 302 redirect to a signed URL and leaves ranged reads to the object
// store.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
