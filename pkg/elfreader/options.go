package elfreader

// Limits bounds how much of an untrusted file Load is willing to read.
type Limits struct {
	MaxSectionHeaders  int
	MaxProgramHeaders  int
	MaxStringTableSize uint64
}

// DefaultLimits accepts every count a header can express and string tables
// up to 16MiB.
var DefaultLimits = Limits{
	MaxSectionHeaders:  0xffff,
	MaxProgramHeaders:  0xffff,
	MaxStringTableSize: 16 << 20,
}

// Option configures Load.
type Option func(*options)

type options struct {
	limits  Limits
	metrics *Metrics
}

// WithLimits replaces DefaultLimits. Zero fields keep their default.
func WithLimits(l Limits) Option {
	return func(o *options) {
		if l.MaxSectionHeaders > 0 {
			o.limits.MaxSectionHeaders = l.MaxSectionHeaders
		}
		if l.MaxProgramHeaders > 0 {
			o.limits.MaxProgramHeaders = l.MaxProgramHeaders
		}
		if l.MaxStringTableSize > 0 {
			o.limits.MaxStringTableSize = l.MaxStringTableSize
		}
	}
}

// WithMetrics records load outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
