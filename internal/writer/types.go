// internal/writer/types.go
package writer

// StatusPlan is the resolved delivery target for one store status block.
type StatusPlan struct {
	Endpoint  string
	UnitID    uint8
	BaseSlot  uint16
	StoreName string
}

// endpointClient is the only thing the status writer needs from Modbus.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
