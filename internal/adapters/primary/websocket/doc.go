// Package websocket implements the real-time order-coordination hub:
// a registry of live connections per user, room-based fan-out keyed by
// order/delivery/restaurant, and the event dispatcher feeding both.
//
// The hub carries signals, never authoritative state. Delivery is
// fire-and-forget and at-most-once: events targeting an empty room or a user
// with no live connections are silently dropped, a slow client loses events
// rather than stalling the room, and nothing is queued or replayed.
//
// Clients must therefore follow the reconnection contract: on every connect
// or reconnect, re-fetch the current order and delivery state from the REST
// snapshot endpoints before trusting any hub-delivered payload, and keep
// polling those endpoints on a fixed cadence (see config.Poll) as the
// backstop for missed events. The push channel is an optimization; the poll
// is the correctness guarantee.
package websocket
