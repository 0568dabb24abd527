package domain

// Source identifies the backing store a record was read from.
type Source string

const (
	// SourceLive is the low-latency key-value feed (Redis).
	SourceLive Source = "live"
	// SourceHistorical is the columnar feed (ClickHouse or Postgres).
	SourceHistorical Source = "historical"
)

// String returns the string representation of Source.
func (s Source) String() string {
	return string(s)
}

// IsValid checks if the source is a valid value.
func (s Source) IsValid() bool {
	return s == SourceLive || s == SourceHistorical
}
