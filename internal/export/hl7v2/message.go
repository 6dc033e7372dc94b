package hl7v2

import (
	"fmt"
	"strings"
)

// Message is a parsed HL7v2 message, used to inspect generated output and
// to accept inbound messages for verification.
type Message struct {
	Type      string // MSH-9 message type, e.g. "ADT^A01"
	ControlID string // MSH-10
	Version   string // MSH-12
	Segments  []Segment
}

// Segment is a single HL7v2 segment.
type Segment struct {
	Name   string
	Fields []Field
}

// Field is one field with its component breakdown.
type Field struct {
	Value      string
	Components []string
}

// Parse parses raw HL7v2 bytes into a structured Message. Segment
// separators may be \r, \n, or \r\n.
func Parse(raw []byte) (*Message, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("hl7v2: message is empty")
	}

	text := strings.ReplaceAll(string(raw), "\r\n", "\r")
	text = strings.ReplaceAll(text, "\n", "\r")

	var lines []string
	for _, line := range strings.Split(text, "\r") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("hl7v2: no segments found")
	}
	if !strings.HasPrefix(lines[0], "MSH") {
		return nil, fmt.Errorf("hl7v2: first segment must be MSH")
	}

	msg := &Message{}
	for _, line := range lines {
		msg.Segments = append(msg.Segments, parseSegment(line))
	}

	msh := msg.Segment("MSH")
	msg.Type = msh.Field(9)
	msg.ControlID = msh.Field(10)
	msg.Version = msh.Field(12)
	return msg, nil
}

// parseSegment splits one segment line. For MSH the field separator itself
// is MSH-1, so field numbering is shifted by one against the raw split.
func parseSegment(line string) Segment {
	seg := Segment{}
	if strings.HasPrefix(line, "MSH") && len(line) > 4 {
		seg.Name = "MSH"
		seg.Fields = append(seg.Fields, Field{Value: "|", Components: []string{"|"}})
		for _, part := range strings.Split(line[4:], "|") {
			seg.Fields = append(seg.Fields, parseField(part))
		}
		return seg
	}

	parts := strings.SplitN(line, "|", 2)
	seg.Name = parts[0]
	if len(parts) > 1 {
		for _, f := range strings.Split(parts[1], "|") {
			seg.Fields = append(seg.Fields, parseField(f))
		}
	}
	return seg
}

func parseField(raw string) Field {
	return Field{Value: raw, Components: strings.Split(raw, "^")}
}

// Segment returns the first segment with the given name, or nil.
func (m *Message) Segment(name string) *Segment {
	for i := range m.Segments {
		if m.Segments[i].Name == name {
			return &m.Segments[i]
		}
	}
	return nil
}

// AllSegments returns every segment with the given name.
func (m *Message) AllSegments(name string) []Segment {
	var out []Segment
	for _, seg := range m.Segments {
		if seg.Name == name {
			out = append(out, seg)
		}
	}
	return out
}

// Field returns the value of a field by its 1-based HL7 index, or "" when
// absent. A nil segment yields "".
func (s *Segment) Field(index int) string {
	if s == nil {
		return ""
	}
	idx := index - 1
	if idx < 0 || idx >= len(s.Fields) {
		return ""
	}
	return s.Fields[idx].Value
}

// Component returns a component by 1-based field and component indexes.
func (s *Segment) Component(fieldIdx, compIdx int) string {
	if s == nil {
		return ""
	}
	idx := fieldIdx - 1
	if idx < 0 || idx >= len(s.Fields) {
		return ""
	}
	ci := compIdx - 1
	comps := s.Fields[idx].Components
	if ci < 0 || ci >= len(comps) {
		return ""
	}
	return comps[ci]
}

// PatientID returns PID-3.1.
func (m *Message) PatientID() string {
	return m.Segment("PID").Component(3, 1)
}

// PatientName returns the family and given name from PID-5.
func (m *Message) PatientName() (family, given string) {
	pid := m.Segment("PID")
	return pid.Component(5, 1), pid.Component(5, 2)
}
