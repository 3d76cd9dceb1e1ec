// Package quote synchronizes prices from the Taiwan exchanges open data.
//
// The exchanges are reached through public CORS relays which are slow and
// unreliable, so:
//   - a Fetcher retries each GET with a timeout per attempt and an exponential
//     backoff, and rejects relay error pages served as 200 OK;
//   - a Source walks its relay chain sequentially and normalizes the records
//     according to its own field names and validation rules;
//   - a Syncer runs all sources concurrently and merges whatever succeeded in
//     a kite.SyncStatus, recording one error per failed source;
//   - a Refresher repeats the sync periodically, never two at a time.
package quote
