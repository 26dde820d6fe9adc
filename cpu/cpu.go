package cpu

// CPU memory, registers and port space.
type CPU struct {
	// regs holds AX, CX, DX, BX, SP, BP, SI, DI in encoding order.
	regs [8]uint16
	// segs holds ES, CS, SS, DS in encoding order.
	segs [4]uint16
	// ip is the instruction pointer.
	ip uint16
	// Flags is the FLAGS word.
	Flags uint16

	// Mem is the flat physical memory, addressed by segment*16+offset.
	Mem []byte
	// Ports is the I/O port space.
	Ports []byte

	// Halted is latched by HLT and cleared by Reset.
	Halted bool
}

// MemorySize is the real-mode physical address space.
const MemorySize = 1 << 20

// New creates a new CPU instance with given memory size.
// A size of zero or above 1 MiB selects the full 1 MiB space.
func New(memsize int) *CPU {
	if memsize <= 0 || memsize > MemorySize {
		memsize = MemorySize
	}

	c := &CPU{
		Mem:   make([]byte, memsize),
		Ports: make([]byte, 0x10000),
	}
	c.Reset()
	return c
}

// Reset clears registers and flags. Memory is left alone.
func (c *CPU) Reset() {
	c.regs = [8]uint16{}
	c.segs = [4]uint16{}
	c.ip = 0
	// Bit 1 of FLAGS always reads as set on the 8086.
	c.Flags = 0x0002
	c.Halted = false
}

// IP returns the instruction pointer.
func (c *CPU) IP() uint16 {
	return c.ip
}

// SetIP sets the instruction pointer.
func (c *CPU) SetIP(v uint16) {
	c.ip = v
}

// Halt latches the halted state.
func (c *CPU) Halt() {
	c.Halted = true
}

// LoadCode to the specified segment and offset, and point CS:IP at it.
func (c *CPU) LoadCode(seg, off uint16, code []byte) {
	for i, b := range code {
		c.Write8(seg, off+uint16(i), b)
	}
	c.SetSeg(CS, seg)
	c.ip = off
}
