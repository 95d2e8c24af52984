// internal/config/config.go
package config

type Config struct {
	Store    StoreConfig     `yaml:"store" toml:"store"`
	Device   DeviceConfig    `yaml:"device" toml:"device"`
	Status   *StatusConfig   `yaml:"status" toml:"status"`     // optional
	Recorder *RecorderConfig `yaml:"recorder" toml:"recorder"` // optional
}

// ---- STORE ----

type StoreConfig struct {
	Name          string `yaml:"name" toml:"name"`
	RecordSize    int    `yaml:"record_size" toml:"record_size"`
	PageSize      uint32 `yaml:"page_size" toml:"page_size"` // 0 => device page size
	ReservedPages uint32 `yaml:"reserved_pages" toml:"reserved_pages"`
	BaseAddress   uint32 `yaml:"base_address" toml:"base_address"`
}

// ---- DEVICE ----

const (
	DeviceMemory = "memory"
	DeviceFile   = "file"
	DeviceModbus = "modbus"
)

type DeviceConfig struct {
	Kind     string `yaml:"kind" toml:"kind"`
	Capacity uint32 `yaml:"capacity" toml:"capacity"`
	PageSize uint32 `yaml:"page_size" toml:"page_size"`

	// memory
	AddressWidth int `yaml:"address_width" toml:"address_width"`

	// file
	Path string `yaml:"path" toml:"path"`
	Mmap bool   `yaml:"mmap" toml:"mmap"`
	Sync bool   `yaml:"sync" toml:"sync"`

	// modbus
	Endpoint     string `yaml:"endpoint" toml:"endpoint"`
	UnitID       uint8  `yaml:"unit_id" toml:"unit_id"`
	TimeoutMs    int    `yaml:"timeout_ms" toml:"timeout_ms"`
	RegisterBase uint16 `yaml:"register_base" toml:"register_base"`
}

// ---- STATUS ----

type StatusConfig struct {
	Endpoint  string `yaml:"endpoint" toml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id" toml:"unit_id"`
	BaseSlot  uint16 `yaml:"base_slot" toml:"base_slot"`
	TimeoutMs int    `yaml:"timeout_ms" toml:"timeout_ms"`
}

// ---- RECORDER ----

type RecorderConfig struct {
	Endpoint   string       `yaml:"endpoint" toml:"endpoint"`
	UnitID     uint8        `yaml:"unit_id" toml:"unit_id"`
	TimeoutMs  int          `yaml:"timeout_ms" toml:"timeout_ms"`
	IntervalMs int          `yaml:"interval_ms" toml:"interval_ms"`
	Reads      []ReadConfig `yaml:"reads" toml:"reads"`
}

// ---- READ GEOMETRY ----

type ReadConfig struct {
	FC       uint8  `yaml:"fc" toml:"fc"`
	Address  uint16 `yaml:"address" toml:"address"`
	Quantity uint16 `yaml:"quantity" toml:"quantity"`
}
