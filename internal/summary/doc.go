// Package summary computes per-broker, per-stock position summaries from
// daily transaction records.
//
// The engine aggregates one trade type at a time and supports two pivot
// directions: broker-centric (one row set per broker, rows per stock) and
// stock-centric (one row set per stock, rows per broker). Each row carries
// buyer, seller, and net statistics; net volume and value are sign-split
// into mutually exclusive NetBuy/NetSell fields, while net frequency and
// order counts stay plain signed differences.
//
// Order counting applies a time-window dedup rule: at or after the market
// reference time, transactions sharing an exact (broker, stock, HH:MM:SS)
// timestamp contribute only the first reported order number. Order numbers
// from before the reference time are counted distinctly and unioned in.
package summary
