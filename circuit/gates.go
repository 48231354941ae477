package circuit

// gateInfo describes one entry of the gate catalog.
type gateInfo struct {
	name        string // human readable name
	symbol      string // short label used by the text drawer
	numParams   int
	numTargets  int
	selfInverse bool
	inverse     string // adjoint gate type for non self-inverse fixed gates
	unitary     bool
}

// gateCatalog defines every gate type the package understands, keyed by the
// upper-case gate type stored in Gate.Type.
var gateCatalog = map[string]gateInfo{
	"I":    {name: "Identity", symbol: "I", numTargets: 1, selfInverse: true, unitary: true},
	"H":    {name: "Hadamard", symbol: "H", numTargets: 1, selfInverse: true, unitary: true},
	"X":    {name: "Pauli-X (NOT)", symbol: "X", numTargets: 1, selfInverse: true, unitary: true},
	"Y":    {name: "Pauli-Y", symbol: "Y", numTargets: 1, selfInverse: true, unitary: true},
	"Z":    {name: "Pauli-Z", symbol: "Z", numTargets: 1, selfInverse: true, unitary: true},
	"S":    {name: "Phase (S)", symbol: "S", numTargets: 1, inverse: "SDG", unitary: true},
	"SDG":  {name: "Phase Dagger (S†)", symbol: "S†", numTargets: 1, inverse: "S", unitary: true},
	"T":    {name: "T Gate", symbol: "T", numTargets: 1, inverse: "TDG", unitary: true},
	"TDG":  {name: "T Dagger (T†)", symbol: "T†", numTargets: 1, inverse: "T", unitary: true},
	"SX":   {name: "√X (SX)", symbol: "√X", numTargets: 1, inverse: "SXDG", unitary: true},
	"SXDG": {name: "√X Dagger", symbol: "√X†", numTargets: 1, inverse: "SX", unitary: true},
	"RX":   {name: "Rotate X", symbol: "RX", numParams: 1, numTargets: 1, unitary: true},
	"RY":   {name: "Rotate Y", symbol: "RY", numParams: 1, numTargets: 1, unitary: true},
	"RZ":   {name: "Rotate Z", symbol: "RZ", numParams: 1, numTargets: 1, unitary: true},
	"P":    {name: "Phase Shift", symbol: "P", numParams: 1, numTargets: 1, unitary: true},
	"U2":   {name: "Universal U2", symbol: "U2", numParams: 2, numTargets: 1, unitary: true},
	"U3":   {name: "Universal U3", symbol: "U3", numParams: 3, numTargets: 1, unitary: true},
	"SWAP": {name: "Swap", symbol: "×", numTargets: 2, selfInverse: true, unitary: true},

	"MEASURE": {name: "Measure", symbol: "M", numTargets: 1},
	"RESET":   {name: "Reset", symbol: "|0>", numTargets: 1},
	"BARRIER": {name: "Barrier", symbol: "░"},
}

// qasmGate maps a QASM 2.0 gate name onto a catalog type plus the number of
// leading qubit arguments that are controls.
type qasmGate struct {
	gateType    string
	numControls int
}

var qasmGates = map[string]qasmGate{
	"id":    {"I", 0},
	"h":     {"H", 0},
	"x":     {"X", 0},
	"y":     {"Y", 0},
	"z":     {"Z", 0},
	"s":     {"S", 0},
	"sdg":   {"SDG", 0},
	"t":     {"T", 0},
	"tdg":   {"TDG", 0},
	"sx":    {"SX", 0},
	"sxdg":  {"SXDG", 0},
	"rx":    {"RX", 0},
	"ry":    {"RY", 0},
	"rz":    {"RZ", 0},
	"p":     {"P", 0},
	"u1":    {"P", 0},
	"u2":    {"U2", 0},
	"u3":    {"U3", 0},
	"u":     {"U3", 0},
	"swap":  {"SWAP", 0},
	"cx":    {"X", 1},
	"cy":    {"Y", 1},
	"cz":    {"Z", 1},
	"ch":    {"H", 1},
	"csx":   {"SX", 1},
	"cp":    {"P", 1},
	"cu1":   {"P", 1},
	"crx":   {"RX", 1},
	"cry":   {"RY", 1},
	"crz":   {"RZ", 1},
	"cu3":   {"U3", 1},
	"cswap": {"SWAP", 1},
	"ccx":   {"X", 2},
}

// lookupGate returns the catalog entry for gateType.
func lookupGate(gateType string) (gateInfo, bool) {
	info, ok := gateCatalog[gateType]
	return info, ok
}
