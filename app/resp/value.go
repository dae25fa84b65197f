package resp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

type DataType byte

const (
	SimpleString DataType = '+'
	SimpleError  DataType = '-'
	Integer      DataType = ':'
	BulkString   DataType = '$'
	Array        DataType = '*'
)

// Value is a tagged RESP reply. Raw carries the payload for strings,
// errors and integers; Values carries the elements of an array.
type Value struct {
	Type   DataType
	Raw    []byte
	Values []Value
	IsNil  bool // null bulk string, marshals as $-1
}

func StringValue(s string) Value {
	return Value{
		Type: SimpleString,
		Raw:  []byte(s),
	}
}

func ErrorValue(s string) Value {
	return Value{
		Type: SimpleError,
		Raw:  []byte(s),
	}
}

func IntegerValue(i int64) Value {
	return Value{
		Type: Integer,
		Raw:  []byte(strconv.FormatInt(i, 10)),
	}
}

func BulkStringValue(s string) Value {
	return Value{
		Type: BulkString,
		Raw:  []byte(s),
	}
}

func BulkNullStringValue() Value {
	return Value{
		Type:  BulkString,
		IsNil: true,
	}
}

func ArrayValue(values ...Value) Value {
	return Value{
		Type:   Array,
		Values: values,
	}
}

func (t DataType) String() string {
	switch t {
	case SimpleString:
		return "SimpleString"
	case SimpleError:
		return "Error"
	case Integer:
		return "Integer"
	case BulkString:
		return "BulkString"
	case Array:
		return "Array"
	default:
		return "Unknown"
	}
}

func (v *Value) String() string {
	switch v.Type {
	case Array:
		return fmt.Sprintf("%v", v.Values)
	default:
		return string(v.Raw)
	}
}

// Marshal encodes the value into its wire representation.
func (v *Value) Marshal() ([]byte, error) {
	switch v.Type {
	case SimpleString, SimpleError, Integer:
		var b bytes.Buffer
		b.WriteByte(byte(v.Type))
		b.Write(v.Raw)
		b.WriteString("\r\n")
		return b.Bytes(), nil
	case BulkString:
		if v.IsNil {
			return []byte("$-1\r\n"), nil
		}
		var b bytes.Buffer
		fmt.Fprintf(&b, "$%d\r\n", len(v.Raw))
		b.Write(v.Raw)
		b.WriteString("\r\n")
		return b.Bytes(), nil
	case Array:
		var b bytes.Buffer
		fmt.Fprintf(&b, "*%d\r\n", len(v.Values))
		for _, item := range v.Values {
			enc, err := item.Marshal()
			if err != nil {
				return nil, err
			}
			b.Write(enc)
		}
		return b.Bytes(), nil
	}

	return nil, errors.New("invalid data type")
}
