// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultAddressWidth = 2
	DefaultTimeoutMs    = 1000
	DefaultIntervalMs   = 1000
	StoreNameMaxChars   = 16
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if len(cfg.Store.Name) > StoreNameMaxChars {
		cfg.Store.Name = cfg.Store.Name[:StoreNameMaxChars]
	}

	d := &cfg.Device
	if d.Kind == DeviceMemory && d.AddressWidth == 0 {
		d.AddressWidth = DefaultAddressWidth
	}
	if d.Kind == DeviceModbus && d.TimeoutMs <= 0 {
		d.TimeoutMs = DefaultTimeoutMs
	}

	if s := cfg.Status; s != nil && s.TimeoutMs <= 0 {
		s.TimeoutMs = DefaultTimeoutMs
	}

	if r := cfg.Recorder; r != nil {
		if r.TimeoutMs <= 0 {
			r.TimeoutMs = DefaultTimeoutMs
		}
		if r.IntervalMs <= 0 {
			r.IntervalMs = DefaultIntervalMs
		}
	}
}
