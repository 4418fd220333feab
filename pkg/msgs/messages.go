// Package msgs defines the protobuf messages exchanged by serial bridges.
package msgs

import (
	"strings"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/serial.go/pkg/serial"
)

// DataChunk carries raw bytes in either direction.
type DataChunk struct {
	Data []byte `protobuf:"bytes,1,opt,name=data,proto3" json:"data,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *DataChunk) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DataChunk) Reset() { *m = DataChunk{} }

// String implements proto.Message.
func (m *DataChunk) String() string { return proto.CompactTextString(m) }

// StatusReport publishes flags collected from a driver along with its
// counters.
type StatusReport struct {
	Flags    uint32   `protobuf:"varint,1,opt,name=flags,proto3" json:"flags,omitempty"`
	Names    []string `protobuf:"bytes,2,rep,name=names,proto3" json:"names,omitempty"`
	RxBytes  uint64   `protobuf:"varint,3,opt,name=rx_bytes,json=rxBytes,proto3" json:"rx_bytes,omitempty"`
	TxBytes  uint64   `protobuf:"varint,4,opt,name=tx_bytes,json=txBytes,proto3" json:"tx_bytes,omitempty"`
	Overruns uint64   `protobuf:"varint,5,opt,name=overruns,proto3" json:"overruns,omitempty"`
	Drains   uint64   `protobuf:"varint,6,opt,name=drains,proto3" json:"drains,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *StatusReport) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusReport) Reset() { *m = StatusReport{} }

// String implements proto.Message.
func (m *StatusReport) String() string { return proto.CompactTextString(m) }

// NewStatusReport builds a report from flags and a stats snapshot.
func NewStatusReport(flags serial.Flags, stats serial.Stats) *StatusReport {
	m := &StatusReport{
		Flags:    uint32(flags),
		RxBytes:  stats.RxBytes,
		TxBytes:  stats.TxBytes,
		Overruns: stats.Overruns,
		Drains:   stats.Drains,
	}
	if flags != serial.NoError {
		m.Names = strings.Split(flags.String(), "|")
	}
	return m
}

// Conditions returns the reported flags.
func (m *StatusReport) Conditions() serial.Flags {
	return serial.Flags(m.Flags)
}

// Encode marshals a message.
func Encode(m proto.Message) ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeDataChunk unmarshals a DataChunk.
func DecodeDataChunk(data []byte) (*DataChunk, error) {
	var m DataChunk
	if err := proto.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DecodeStatusReport unmarshals a StatusReport.
func DecodeStatusReport(data []byte) (*StatusReport, error) {
	var m StatusReport
	if err := proto.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
