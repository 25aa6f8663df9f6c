package manifest

// Predefined items that manifests reference by their win: names without
// declaring them. They are never owned by a provider and never receive
// message IDs from the compiler.

type winLevel struct {
	name  string
	value uint32
}

var winLevels = []winLevel{
	{"win:LogAlways", 0},
	{"win:Critical", 1},
	{"win:Error", 2},
	{"win:Warning", 3},
	{"win:Informational", 4},
	{"win:Verbose", 5},
}

var winOpcodes = []winLevel{
	{"win:Info", 0},
	{"win:Start", 1},
	{"win:Stop", 2},
	{"win:DC_Start", 3},
	{"win:DC_Stop", 4},
	{"win:Extension", 5},
	{"win:Reply", 6},
	{"win:Resume", 7},
	{"win:Suspend", 8},
	{"win:Send", 9},
	{"win:Receive", 240},
}

var winKeywords = []struct {
	name string
	mask uint64
}{
	{"win:ResponseTime", 0x0001000000000000},
	{"win:WDIContext", 0x0002000000000000},
	{"win:WDIDiag", 0x0004000000000000},
	{"win:SQM", 0x0008000000000000},
	{"win:AuditFailure", 0x0010000000000000},
	{"win:AuditSuccess", 0x0020000000000000},
	{"win:CorrelationHint", 0x0040000000000000},
	{"win:EventlogClassic", 0x0080000000000000},
}

var winChannels = []winLevel{
	{"TraceClassic", 0},
	{"System", 8},
	{"Application", 9},
	{"Security", 10},
	{"TraceLogging", 11},
	{"ProviderMetadata", 12},
}

var (
	predefinedLevels   = map[string]*Level{}
	predefinedOpcodes  = map[string]*Opcode{}
	predefinedKeywords = map[string]*Keyword{}
	predefinedTasks    = map[string]*Task{}
)

func init() {
	for _, l := range winLevels {
		predefinedLevels[l.name] = &Level{Name: l.name, Value: l.value, Imported: true}
	}
	for _, o := range winOpcodes {
		predefinedOpcodes[o.name] = &Opcode{Name: o.name, Value: o.value, Imported: true}
	}
	for _, k := range winKeywords {
		predefinedKeywords[k.name] = &Keyword{Name: k.name, Mask: k.mask, Imported: true}
	}
	predefinedTasks["win:None"] = &Task{Name: "win:None", Value: 0, Imported: true}
}

func PredefinedLevel(name string) (*Level, bool) {
	l, ok := predefinedLevels[name]
	return l, ok
}

func PredefinedOpcode(name string) (*Opcode, bool) {
	o, ok := predefinedOpcodes[name]
	return o, ok
}

func PredefinedKeyword(name string) (*Keyword, bool) {
	k, ok := predefinedKeywords[name]
	return k, ok
}

func PredefinedTask(name string) (*Task, bool) {
	t, ok := predefinedTasks[name]
	return t, ok
}

// PredefinedChannelValue returns the value of a system channel that can be
// imported by name.
func PredefinedChannelValue(name string) (uint32, bool) {
	for _, c := range winChannels {
		if c.name == name {
			return c.value, true
		}
	}
	return 0, false
}

// IsReservedOpcodeName reports whether name belongs to the system opcode namespace.
func IsReservedOpcodeName(name string) bool {
	_, ok := predefinedOpcodes[name]
	return ok
}
