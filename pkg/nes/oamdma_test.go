package nes

import "testing"

// TestOAMDMAStallsCPUForExactCycleCount drives a $4014 write through the
// full NES.Step loop and verifies the CPU is stalled for 513 or 514
// consecutive cycles, during which PC never advances, before the next
// instruction resumes.
func TestOAMDMAStallsCPUForExactCycleCount(t *testing.T) {
	system := NewNES()
	system.Reset()

	// NOP at $0200 writes nothing; place STA $4014 (absolute) at $0200,
	// followed by a NOP to observe PC resuming after the stall.
	system.Memory.Write(0x0200, 0x8D) // STA $4014
	system.Memory.Write(0x0201, 0x14)
	system.Memory.Write(0x0202, 0x40)
	system.Memory.Write(0x0203, 0xEA) // NOP
	system.CPU.PC = 0x0200

	// Execute the STA instruction itself.
	if err := system.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if system.CPU.PC != 0x0203 {
		t.Fatalf("expected PC past STA $4014 at $0203, got $%04X", system.CPU.PC)
	}
	if !system.Memory.OAMDMAActive() {
		t.Fatal("expected OAM DMA to be armed after the $4014 write")
	}

	stalledSteps := 0
	for system.Memory.OAMDMAActive() {
		if err := system.Step(); err != nil {
			t.Fatalf("unexpected error during DMA stall: %v", err)
		}
		stalledSteps++
		if system.CPU.PC != 0x0203 {
			t.Fatalf("expected PC to stay at $0203 during DMA stall, advanced to $%04X after %d steps", system.CPU.PC, stalledSteps)
		}
		if stalledSteps > 600 {
			t.Fatal("OAM DMA never completed")
		}
	}

	if stalledSteps != 513 && stalledSteps != 514 {
		t.Errorf("expected OAM DMA to occupy 513 or 514 CPU cycles, occupied %d", stalledSteps)
	}

	// Now the NOP at $0203 should execute normally.
	if err := system.Step(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if system.CPU.PC != 0x0204 {
		t.Errorf("expected PC to advance past the NOP to $0204, got $%04X", system.CPU.PC)
	}
}

// TestBreakpointHaltsBeforeFetchThenContinues verifies NES.Step reports a
// breakpoint once without executing the instruction at that PC, and then
// executes it normally on the following call.
func TestBreakpointHaltsBeforeFetchThenContinues(t *testing.T) {
	system := NewNES()
	system.Reset()

	system.Memory.Write(0x0200, 0xEA) // NOP
	system.CPU.PC = 0x0200
	system.SetBreakpoints(map[uint16]bool{0x0200: true})

	if err := system.Step(); err == nil {
		t.Fatal("expected a breakpoint error on the first step")
	}
	if system.CPU.PC != 0x0200 {
		t.Errorf("expected PC to stay at the breakpoint after it fires, got $%04X", system.CPU.PC)
	}

	if err := system.Step(); err != nil {
		t.Fatalf("expected the instruction to run on the next step, got error: %v", err)
	}
	if system.CPU.PC != 0x0201 {
		t.Errorf("expected PC to advance past the NOP, got $%04X", system.CPU.PC)
	}
}
