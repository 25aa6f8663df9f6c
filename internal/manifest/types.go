package manifest

import (
	"fmt"
	"math"

	"evmc/internal/diag"
)

// UnusedMessageID is the wire value for "no message ID assigned".
const UnusedMessageID uint32 = math.MaxUint32

// MessageID is an optional message identifier. The zero value is unset.
type MessageID struct {
	value uint32
	set   bool
}

// NewMessageID returns a set ID; the wire sentinel maps back to unset.
func NewMessageID(v uint32) MessageID {
	if v == UnusedMessageID {
		return MessageID{}
	}
	return MessageID{value: v, set: true}
}

func (m MessageID) IsSet() bool { return m.set }

func (m MessageID) Get() (uint32, bool) { return m.value, m.set }

// Wire returns the value to serialize, using UnusedMessageID when unset.
func (m MessageID) Wire() uint32 {
	if !m.set {
		return UnusedMessageID
	}
	return m.value
}

func (m MessageID) String() string {
	if !m.set {
		return "unused"
	}
	return fmt.Sprintf("0x%08X", m.value)
}

// Node carries the source location every model entity has.
type Node struct {
	Location diag.Location
}

func (n *Node) Loc() diag.Location { return n.Location }

type ChannelType int

const (
	ChannelAdmin ChannelType = iota
	ChannelOperational
	ChannelAnalytic
	ChannelDebug
)

var channelTypeNames = map[ChannelType]string{
	ChannelAdmin:       "Admin",
	ChannelOperational: "Operational",
	ChannelAnalytic:    "Analytic",
	ChannelDebug:       "Debug",
}

func (t ChannelType) String() string {
	if s, ok := channelTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ChannelType(%d)", int(t))
}

func ParseChannelType(s string) (ChannelType, bool) {
	for t, name := range channelTypeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

type MapKind int

const (
	ValueMapKind MapKind = iota
	BitMapKind
)

func (k MapKind) String() string {
	if k == BitMapKind {
		return "bitMap"
	}
	return "valueMap"
}

// InType is the serialized input type of a data property.
type InType uint8

const (
	InNull                 InType = 0
	InUnicodeString        InType = 1
	InAnsiString           InType = 2
	InInt8                 InType = 3
	InUInt8                InType = 4
	InInt16                InType = 5
	InUInt16               InType = 6
	InInt32                InType = 7
	InUInt32               InType = 8
	InInt64                InType = 9
	InUInt64               InType = 10
	InFloat                InType = 11
	InDouble               InType = 12
	InBoolean              InType = 13
	InBinary               InType = 14
	InGUID                 InType = 15
	InPointer              InType = 16
	InFILETIME             InType = 17
	InSYSTEMTIME           InType = 18
	InSID                  InType = 19
	InHexInt32             InType = 20
	InHexInt64             InType = 21
	InCountedUnicodeString InType = 22
	InCountedAnsiString    InType = 23
	InCountedBinary        InType = 25
)

type typeInfo[T ~uint8] struct {
	name  string
	value T
}

var inTypes = []typeInfo[InType]{
	{"win:UnicodeString", InUnicodeString},
	{"win:AnsiString", InAnsiString},
	{"win:Int8", InInt8},
	{"win:UInt8", InUInt8},
	{"win:Int16", InInt16},
	{"win:UInt16", InUInt16},
	{"win:Int32", InInt32},
	{"win:UInt32", InUInt32},
	{"win:Int64", InInt64},
	{"win:UInt64", InUInt64},
	{"win:Float", InFloat},
	{"win:Double", InDouble},
	{"win:Boolean", InBoolean},
	{"win:Binary", InBinary},
	{"win:GUID", InGUID},
	{"win:Pointer", InPointer},
	{"win:FILETIME", InFILETIME},
	{"win:SYSTEMTIME", InSYSTEMTIME},
	{"win:SID", InSID},
	{"win:HexInt32", InHexInt32},
	{"win:HexInt64", InHexInt64},
	{"win:CountedUnicodeString", InCountedUnicodeString},
	{"win:CountedAnsiString", InCountedAnsiString},
	{"win:CountedBinary", InCountedBinary},
}

func ParseInType(name string) (InType, bool) {
	for _, t := range inTypes {
		if t.name == name {
			return t.value, true
		}
	}
	return InNull, false
}

func (t InType) String() string {
	for _, info := range inTypes {
		if info.value == t {
			return info.name
		}
	}
	return fmt.Sprintf("InType(%d)", uint8(t))
}

// IsCounted reports whether values of this type carry their own length prefix.
func (t InType) IsCounted() bool {
	switch t {
	case InCountedUnicodeString, InCountedAnsiString, InCountedBinary:
		return true
	}
	return false
}

// OutType is the rendering hint of a data property.
type OutType uint8

const OutNull OutType = 0

var outTypes = []typeInfo[OutType]{
	{"xs:string", 1},
	{"xs:dateTime", 2},
	{"xs:byte", 3},
	{"xs:unsignedByte", 4},
	{"xs:short", 5},
	{"xs:unsignedShort", 6},
	{"xs:int", 7},
	{"xs:unsignedInt", 8},
	{"xs:long", 9},
	{"xs:unsignedLong", 10},
	{"xs:float", 11},
	{"xs:double", 12},
	{"xs:boolean", 13},
	{"xs:GUID", 14},
	{"xs:hexBinary", 15},
	{"win:HexInt8", 16},
	{"win:HexInt16", 17},
	{"win:HexInt32", 18},
	{"win:HexInt64", 19},
	{"win:PID", 20},
	{"win:TID", 21},
	{"win:Port", 22},
	{"win:IPv4", 23},
	{"win:IPv6", 24},
	{"win:SocketAddress", 25},
	{"win:CIMDateTime", 26},
	{"win:ETWTIME", 27},
	{"win:Xml", 28},
	{"win:ErrorCode", 29},
	{"win:Win32Error", 30},
	{"win:NTSTATUS", 31},
	{"win:HResult", 32},
	{"win:DateTimeCultureInsensitive", 33},
	{"win:Json", 34},
	{"win:Utf8", 35},
	{"win:Pkcs7", 36},
	{"win:CodePointer", 37},
	{"win:DateTimeUtc", 38},
}

func ParseOutType(name string) (OutType, bool) {
	for _, t := range outTypes {
		if t.name == name {
			return t.value, true
		}
	}
	return OutNull, false
}

func (t OutType) String() string {
	if t == OutNull {
		return ""
	}
	for _, info := range outTypes {
		if info.value == t {
			return info.name
		}
	}
	return fmt.Sprintf("OutType(%d)", uint8(t))
}

// Size is the optional length or count of a property: a literal, or the
// name of a preceding property that carries the value at runtime.
type Size struct {
	Value uint16
	Ref   string
	set   bool
}

func FixedSize(v uint16) Size { return Size{Value: v, set: true} }

func RefSize(name string) Size { return Size{Ref: name, set: true} }

func (s Size) IsSpecified() bool { return s.set }

func (s Size) IsRef() bool { return s.set && s.Ref != "" }

func (s Size) String() string {
	switch {
	case !s.set:
		return ""
	case s.Ref != "":
		return s.Ref
	default:
		return fmt.Sprintf("%d", s.Value)
	}
}
