package target

import (
	"fmt"

	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/diag"
	"github.com/blendsdk/blend65/pkg/symbols"
	"github.com/blendsdk/blend65/pkg/types"
)

// Category classifies one zero-page byte.
type Category int

const (
	CategorySafe Category = iota
	CategoryIOPort
	CategoryKernalWorkspace
)

func (c Category) String() string {
	switch c {
	case CategoryIOPort:
		return "CPU I/O port"
	case CategoryKernalWorkspace:
		return "KERNAL workspace"
	default:
		return "user-safe"
	}
}

// The C64 zero page's three fixed regions (§4.K). $00-$01 is the 6510's
// I/O direction/data port; $02-$8F (142 bytes) is safe for user programs;
// $90-$FF is claimed by KERNAL/BASIC workspace.
const (
	ZPIOPortStart = 0x00
	ZPIOPortEnd   = 0x01
	ZPSafeStart   = 0x02
	ZPSafeEnd     = 0x8F
	ZPKernalStart = 0x90
	ZPKernalEnd   = 0xFF
	zpSafeBytes   = ZPSafeEnd - ZPSafeStart + 1 // 142
)

// Categorize classifies a single zero-page address ($00-$FF).
func Categorize(addr uint16) Category {
	switch {
	case addr <= ZPIOPortEnd:
		return CategoryIOPort
	case addr <= ZPSafeEnd:
		return CategorySafe
	default:
		return CategoryKernalWorkspace
	}
}

// Violation describes one rejected zero-page allocation: the diagnostic
// code (S103 reserved, S104 allocation-into-reserved) and its message.
type Violation struct {
	Code    string
	Message string
}

// ValidateAllocation checks every byte of [start, start+size-1] against
// the zero-page map, returning nil when the whole span is user-safe. It
// distinguishes three forms per §4.K: a single reserved byte, an
// allocation that starts in a reserved region, and one that starts safe
// but extends into one.
func ValidateAllocation(start uint16, size int) *Violation {
	if size <= 0 {
		return nil
	}
	end := int(start) + size - 1
	reservedAt := -1
	for addr := int(start); addr <= end && addr <= 0xFF; addr++ {
		if Categorize(uint16(addr)) != CategorySafe {
			reservedAt = addr
			break
		}
	}
	if end > 0xFF && reservedAt < 0 {
		reservedAt = 0x100 // ran off the end of the zero page entirely
	}
	if reservedAt < 0 {
		return nil
	}

	switch {
	case size == 1:
		return &Violation{
			Code:    "S103",
			Message: fmt.Sprintf("zero-page byte $%02X is reserved (%s); safe range is $%02X-$%02X", start, Categorize(start), ZPSafeStart, ZPSafeEnd),
		}
	case reservedAt == int(start):
		return &Violation{
			Code:    "S103",
			Message: fmt.Sprintf("zero-page allocation of %d bytes starting at $%02X starts in reserved %s; safe range is $%02X-$%02X", size, start, Categorize(start), ZPSafeStart, ZPSafeEnd),
		}
	default:
		cat := "beyond the zero page"
		if reservedAt <= 0xFF {
			cat = Categorize(uint16(reservedAt)).String()
		}
		return &Violation{
			Code:    "S104",
			Message: fmt.Sprintf("zero-page allocation of %d bytes at $%02X extends into reserved %s at $%02X; safe range is $%02X-$%02X", size, start, cat, reservedAt, ZPSafeStart, ZPSafeEnd),
		}
	}
}

// SuggestAllocation returns the lowest user-safe start address able to
// hold size contiguous bytes at or after preferred, wrapping around to the
// start of the safe range if necessary. It reports ok=false when size
// exceeds the entire 142-byte safe range — no start address could ever
// satisfy it.
func SuggestAllocation(size int, preferred uint16) (start uint16, ok bool) {
	if size <= 0 || size > zpSafeBytes {
		return 0, false
	}
	from := preferred
	if from < ZPSafeStart {
		from = ZPSafeStart
	}
	for addr := int(from); addr <= ZPSafeEnd; addr++ {
		if ValidateAllocation(uint16(addr), size) == nil {
			return uint16(addr), true
		}
	}
	for addr := ZPSafeStart; addr < int(from); addr++ {
		if ValidateAllocation(uint16(addr), size) == nil {
			return uint16(addr), true
		}
	}
	return 0, false
}

// c64Analyzer implements Analyzer for the C64: it bump-allocates a
// zero-page address for every @zp-declared symbol (in declaration order,
// so allocation is deterministic) and validates every @map (fixed-address)
// declaration against the zero-page map plus any manifest reservations,
// flagging address overlaps between distinct @map declarations.
type c64Analyzer struct {
	reserved []ZeroPageReservation
}

func newC64Analyzer(manifest *Manifest) *c64Analyzer {
	a := &c64Analyzer{}
	if manifest != nil {
		a.reserved = manifest.ZeroPageReserved
	}
	return a
}

func (a *c64Analyzer) Analyze(prog *ast.Program, table *symbols.Table, bus *diag.Bus) {
	cursor := uint16(ZPSafeStart)
	type fixedAlloc struct {
		name  string
		start uint16
		size  int
		decl  *ast.VariableDecl
	}
	var fixed []fixedAlloc

	walkSymbols(table, func(sym *symbols.Symbol) {
		switch sym.Storage {
		case symbols.StorageZP:
			size := sizeOf(sym.Type)
			start, ok := SuggestAllocation(size, cursor)
			if !ok {
				bus.Errorf("S103", sym.Decl, fmt.Sprintf("no zero-page room for %q (%d bytes); the safe range $%02X-$%02X holds only %d bytes", sym.Name, size, ZPSafeStart, ZPSafeEnd, zpSafeBytes))
				return
			}
			if v := a.validateWithManifest(start, size); v != nil {
				bus.Errorf(v.Code, sym.Decl, fmt.Sprintf("%q: %s", sym.Name, v.Message))
				return
			}
			cursor = start + uint16(size)
		case symbols.StorageMap:
			decl, _ := sym.Node.(*ast.VariableDecl)
			if decl == nil || !decl.HasFixedAddr {
				return
			}
			fixed = append(fixed, fixedAlloc{name: sym.Name, start: decl.FixedAddr, size: sizeOf(sym.Type), decl: decl})
			if decl.FixedAddr <= 0xFF {
				if v := a.validateWithManifest(decl.FixedAddr, sizeOf(sym.Type)); v != nil {
					bus.Errorf(v.Code, sym.Decl, fmt.Sprintf("%q: %s", sym.Name, v.Message))
				}
			}
		}
	})

	for i := 0; i < len(fixed); i++ {
		for j := i + 1; j < len(fixed); j++ {
			if rangesOverlap(fixed[i].start, fixed[i].size, fixed[j].start, fixed[j].size) {
				bus.Errorf("S100", fixed[j].decl.Range(), fmt.Sprintf("hardware declaration %q at $%04X overlaps %q at $%04X", fixed[j].name, fixed[j].start, fixed[i].name, fixed[i].start))
			}
		}
	}
}

// validateWithManifest layers a manifest's extra zero-page reservations on
// top of the built-in CPU I/O port / KERNAL workspace checks. It only
// applies to addresses that already fall in the zero page; fixed
// addresses above $FF (ordinary memory-mapped hardware) never land here.
func (a *c64Analyzer) validateWithManifest(start uint16, size int) *Violation {
	if v := ValidateAllocation(start, size); v != nil {
		return v
	}
	for _, r := range a.reserved {
		if rangesOverlap(start, size, r.Start, int(r.End)-int(r.Start)+1) {
			name := r.Name
			if name == "" {
				name = "manifest-reserved"
			}
			return &Violation{
				Code:    "S103",
				Message: fmt.Sprintf("zero-page allocation of %d bytes at $%02X overlaps manifest-reserved range %q [$%02X-$%02X]", size, start, name, r.Start, r.End),
			}
		}
	}
	return nil
}

func rangesOverlap(aStart uint16, aSize int, bStart uint16, bSize int) bool {
	if aSize <= 0 || bSize <= 0 {
		return false
	}
	aEnd := int(aStart) + aSize - 1
	bEnd := int(bStart) + bSize - 1
	return int(aStart) <= bEnd && int(bStart) <= aEnd
}

// sizeOf is types.SizeOf guarded against a nil type.
func sizeOf(t *types.Type) int {
	if t == nil {
		return 1
	}
	return types.SizeOf(t)
}
