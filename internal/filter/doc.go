// Package filter provides per-player chat rate limiting and near-duplicate
// suppression backed by a sliding window of recent message timestamps.
package filter
