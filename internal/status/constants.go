// internal/status/constants.go
package status

// Store Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerStore is the fixed number of registers per store block.
const SlotsPerStore = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the store health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the code of the last failed operation.
const SlotLastErrorCode = 1

// SlotSlotCount holds the number of slots of the layout.
const SlotSlotCount = 2

// SlotWriteCountHi and SlotWriteCountLo hold the 32-bit write count, high word first.
const (
	SlotWriteCountHi = 3
	SlotWriteCountLo = 4
)

// SlotCurrentSlot holds the slot that receives the next write.
const SlotCurrentSlot = 5

// ---- RESERVED RANGE ----

// Slots 6–10 are reserved for future use.
const SlotReservedStart = 6
const SlotReservedEnd = 10

// ---- STORE NAME ----

// SlotNameStart is the first slot used for the store name.
const SlotNameStart = 11

// SlotNameSlots is the number of slots reserved for the store name.
const SlotNameSlots = 8

// SlotNameEnd is the last slot used for the store name (inclusive).
const SlotNameEnd = SlotNameStart + SlotNameSlots - 1

// ---- LIMITS ----

// NameMaxChars is the maximum number of ASCII characters stored for the name.
const NameMaxChars = 16

// ---- HEALTH CODES ----

// HealthUnknown represents a boot state before the first initialize.
const HealthUnknown uint16 = 0

// HealthOK represents an initialized, writable store.
const HealthOK uint16 = 1

// HealthError represents a store whose last operation failed.
const HealthError uint16 = 2

// HealthNotInitialized represents a store that could not be initialized.
const HealthNotInitialized uint16 = 3

// ---- ERROR CODES ----

const (
	CodeNone           uint16 = 0
	CodeGeneric        uint16 = 1
	CodeConfiguration  uint16 = 2
	CodeDevice         uint16 = 3
	CodeNotInitialized uint16 = 4
	CodeRecordSize     uint16 = 5
	CodeSource         uint16 = 6 // sampling the source failed
)
