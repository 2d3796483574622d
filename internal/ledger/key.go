package ledger

import (
	"encoding/binary"
	"fmt"
)

// Key space
//
//	0x00                                 project counter
//	0x01 | be64(project) | field          project fields (process-wide)
//	0x02 | uvarint(len) | account | be64(project) | field
//	                                     per-contributor entries
//
// Every key carries its namespace tag and fixed-width id, so no two
// (project, field) or (account, project, field) tuples share an encoding.
const (
	tagCounter byte = 0x00
	tagGlobal  byte = 0x01
	tagLocal   byte = 0x02
)

// Field names one stored attribute of a project or a contributor entry
type Field uint8

const (
	FieldName Field = iota + 1
	FieldDescription
	FieldCategory
	FieldCreator
	FieldTarget
	FieldDeadline
	FieldCollected
	FieldThreshold
	FieldActive
	FieldRefunded

	// Per-contributor fields
	FieldContribution
	FieldReward
)

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldDescription:
		return "desc"
	case FieldCategory:
		return "category"
	case FieldCreator:
		return "creator"
	case FieldTarget:
		return "target"
	case FieldDeadline:
		return "deadline"
	case FieldCollected:
		return "collected"
	case FieldThreshold:
		return "threshold"
	case FieldActive:
		return "active"
	case FieldRefunded:
		return "refunded"
	case FieldContribution:
		return "contrib"
	case FieldReward:
		return "nft"
	default:
		return fmt.Sprintf("field(%d)", uint8(f))
	}
}

// Key addresses one value in the ledger
type Key interface {
	// Bytes returns the collision-free binary encoding of the key
	Bytes() []byte

	// Account returns the owning account for per-contributor keys, "" otherwise
	Account() string

	// String returns a readable name for logs and storage inspection
	String() string
}

type counterKey struct{}

// ProjectCounterKey holds the next unused project id
var ProjectCounterKey Key = counterKey{}

func (counterKey) Bytes() []byte   { return []byte{tagCounter} }
func (counterKey) Account() string { return "" }
func (counterKey) String() string  { return "project_count" }

// GlobalKey addresses a project field in the process-wide namespace
type GlobalKey struct {
	Project uint64
	Field   Field
}

// ProjectKey builds the key of a project field
func ProjectKey(project uint64, field Field) GlobalKey {
	return GlobalKey{Project: project, Field: field}
}

func (k GlobalKey) Bytes() []byte {
	b := make([]byte, 0, 10)
	b = append(b, tagGlobal)
	b = binary.BigEndian.AppendUint64(b, k.Project)
	return append(b, byte(k.Field))
}

func (k GlobalKey) Account() string { return "" }

func (k GlobalKey) String() string {
	return fmt.Sprintf("project_%d_%s", k.Project, k.Field)
}

// LocalKey addresses an entry in an account's own namespace
type LocalKey struct {
	Owner   string
	Project uint64
	Field   Field
}

// ContributionKey builds the key of an account's contribution to a project
func ContributionKey(account string, project uint64) LocalKey {
	return LocalKey{Owner: account, Project: project, Field: FieldContribution}
}

// RewardKey builds the key of an account's reward record for a project
func RewardKey(account string, project uint64) LocalKey {
	return LocalKey{Owner: account, Project: project, Field: FieldReward}
}

func (k LocalKey) Bytes() []byte {
	b := make([]byte, 0, 1+binary.MaxVarintLen64+len(k.Owner)+9)
	b = append(b, tagLocal)
	b = binary.AppendUvarint(b, uint64(len(k.Owner)))
	b = append(b, k.Owner...)
	b = binary.BigEndian.AppendUint64(b, k.Project)
	return append(b, byte(k.Field))
}

func (k LocalKey) Account() string { return k.Owner }

func (k LocalKey) String() string {
	return fmt.Sprintf("%s/%s_%d", k.Owner, k.Field, k.Project)
}

// ParseKey decodes the binary encoding produced by Key.Bytes
func ParseKey(b []byte) (Key, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("empty key")
	}
	switch b[0] {
	case tagCounter:
		if len(b) != 1 {
			return nil, fmt.Errorf("invalid counter key length: %d", len(b))
		}
		return ProjectCounterKey, nil

	case tagGlobal:
		if len(b) != 10 {
			return nil, fmt.Errorf("invalid project key length: %d", len(b))
		}
		return GlobalKey{Project: binary.BigEndian.Uint64(b[1:9]), Field: Field(b[9])}, nil

	case tagLocal:
		n, w := binary.Uvarint(b[1:])
		if w <= 0 {
			return nil, fmt.Errorf("invalid account key owner length")
		}
		rest := b[1+w:]
		if uint64(len(rest)) < 9 || uint64(len(rest))-9 != n {
			return nil, fmt.Errorf("invalid account key length: %d", len(b))
		}
		return LocalKey{
			Owner:   string(rest[:n]),
			Project: binary.BigEndian.Uint64(rest[n : n+8]),
			Field:   Field(rest[n+8]),
		}, nil

	default:
		return nil, fmt.Errorf("unknown key tag 0x%02x", b[0])
	}
}

// EncodeUint64 encodes an integer value as 8 big-endian bytes
func EncodeUint64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), v)
}

// DecodeUint64 decodes an integer value; absent values decode to zero
func DecodeUint64(b []byte) (uint64, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid integer value length: %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}
