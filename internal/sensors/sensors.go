package sensors

// Sensor is a read-only hwmon channel with a per-cycle cached value.
// The cached value is only ever mutated by Update, every other accessor
// works with the stored reading.
type Sensor interface {
	GetId() string

	// Update reads a fresh value from the underlying channel. A failed
	// read keeps the previous cached value, a stale reading is acceptable
	// where a crash is not.
	Update()

	// GetValue returns the cached value in display units
	GetValue() int
	// HasValue reports whether Update has succeeded at least once
	HasValue() bool

	FormatValue() string
}
