// Package server provides HTTP routing, middleware, and the bot's web surface.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Webhook Ingestion
//
// [WebhookHandler] receives Telegram updates, verifies the optional secret
// token header, and hands each usable message to the bot in a goroutine so
// Telegram gets its 200 without waiting on the pipeline.
//
// # OAuth Callbacks
//
// Two callback handlers share the /callback shape but not a lifecycle:
//
//   - [LinkCallbackHandler] stays mounted on the long-running server and
//     completes chat users' account-linking handshakes, one-time state
//     records providing the replay protection.
//   - [BootstrapHandler] serves the operator's one-time token bootstrap from
//     a temporary localhost server and processes exactly one callback.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
