// Package domain models Nashville Electric Service (NES) outage data and the
// area statistics derived from it.
//
// # Data Source
//
// Outage events come from the public NES outage map feed
// (https://utilisocial.io/datacapable/v2/p/NES/map/events). The feed returns a
// JSON array of currently open outages; a history is simply the accumulation of
// those events over time. See [FeedEvent] for the wire format.
//
// # Feed Conventions
//
// Timestamps:
//
//	startTime and lastUpdatedTime are Unix epoch milliseconds. An outage's
//	duration is lastUpdatedTime - startTime, reported in hours.
//
// Coordinates:
//
//	latitude/longitude are WGS-84 decimal degrees and may be null. The feed
//	does not carry a zip code; it is resolved lazily (see [ZipResolver]).
//
// Status:
//
//	Free-form crew status string. "Unassigned" means no crew has been
//	dispatched yet; any other value (including a missing status) is treated
//	as a crew on site.
//
// # Areas
//
// An area is a 5-digit zip code. Neighborhood names come from a static
// registry of Nashville zips ([NashvilleZipCodes]). Events whose zip cannot be
// determined are grouped under [UnknownArea]; CSV exports print [NoZipCode].
//
// # Zip Resolution
//
// Zip codes are resolved through a fallback chain: the event's own zip, the
// persisted geocode cache, the reverse geocoder, and finally the registered
// zip whose centroid is nearest in planar (not great-circle) distance.
// Cache keys round coordinates to 4 decimal places (~11 m), so nearby points
// deliberately share an entry. Failed lookups are cached too and never retried.
//
// # Local Time
//
// Hour-of-day, month grouping and CSV date/time columns are computed in the
// package location (see [SetLocation]), which defaults to the host's local zone.
package domain
