package cpu

// Physical returns the linear address of seg:off, wrapped to the memory size.
func (c *CPU) Physical(seg, off uint16) uint32 {
	addr := uint32(seg)<<4 + uint32(off)
	return addr % uint32(len(c.Mem))
}

// Read8 reads a byte at seg:off.
func (c *CPU) Read8(seg, off uint16) byte {
	return c.Mem[c.Physical(seg, off)]
}

// Write8 writes a byte at seg:off.
func (c *CPU) Write8(seg, off uint16, v byte) {
	c.Mem[c.Physical(seg, off)] = v
}

// Read16 reads a little-endian word at seg:off.
// The high byte comes from off+1 within the same segment.
func (c *CPU) Read16(seg, off uint16) uint16 {
	return uint16(c.Read8(seg, off)) | uint16(c.Read8(seg, off+1))<<8
}

// Write16 writes a little-endian word at seg:off.
func (c *CPU) Write16(seg, off, v uint16) {
	c.Write8(seg, off, byte(v))
	c.Write8(seg, off+1, byte(v>>8))
}

// ReadMem reads a byte or a word at seg:off.
func (c *CPU) ReadMem(seg, off uint16, wide bool) uint16 {
	if wide {
		return c.Read16(seg, off)
	}
	return uint16(c.Read8(seg, off))
}

// WriteMem writes a byte or a word at seg:off.
func (c *CPU) WriteMem(seg, off uint16, wide bool, v uint16) {
	if wide {
		c.Write16(seg, off, v)
		return
	}
	c.Write8(seg, off, byte(v))
}

// Push a word onto SS:SP.
func (c *CPU) Push(v uint16) {
	sp := c.Reg(SP) - 2
	c.SetReg(SP, sp)
	c.Write16(c.Seg(SS), sp, v)
}

// Pop a word from SS:SP.
func (c *CPU) Pop() uint16 {
	sp := c.Reg(SP)
	v := c.Read16(c.Seg(SS), sp)
	c.SetReg(SP, sp+2)
	return v
}

// In reads a byte or word from the port space.
func (c *CPU) In(port uint16, wide bool) uint16 {
	v := uint16(c.Ports[port])
	if wide {
		v |= uint16(c.Ports[port+1]) << 8
	}
	return v
}

// Out writes a byte or word to the port space.
func (c *CPU) Out(port uint16, wide bool, v uint16) {
	c.Ports[port] = byte(v)
	if wide {
		c.Ports[port+1] = byte(v >> 8)
	}
}
