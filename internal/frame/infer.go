package frame

import (
	"strconv"
	"strings"
)

// Classify returns the narrowest type a single non-empty token fits.
// Precedence is int32, then float32, then boolean, then string.
func Classify(token string) DataType {
	if _, err := strconv.ParseInt(token, 10, 32); err == nil {
		return Int32Type
	}
	if _, err := strconv.ParseFloat(token, 32); err == nil {
		return Float32Type
	}
	if strings.EqualFold(token, "true") || strings.EqualFold(token, "false") {
		return BooleanType
	}
	return StringType
}

// MergeTypes widens two observed types to one that holds both. Integers
// widen to float32; any other mix falls back to string.
func MergeTypes(a, b DataType) DataType {
	if a == b {
		return a
	}
	if (a == Int32Type && b == Float32Type) || (a == Float32Type && b == Int32Type) {
		return Float32Type
	}
	return StringType
}

// InferType inspects a column's raw tokens and picks its type. Empty
// tokens are nulls and carry no type evidence; a column with no non-empty
// token is string.
func InferType(tokens []string) DataType {
	inferred := StringType
	seen := false
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		c := Classify(tok)
		if !seen {
			inferred = c
			seen = true
		} else {
			inferred = MergeTypes(inferred, c)
		}
		if inferred == StringType {
			break
		}
	}
	return inferred
}

// CastValue converts one token to the given type. The empty token is the
// null placeholder and converts to nil for every type. String casts never
// fail.
func CastValue(token string, t DataType) (any, error) {
	if token == "" {
		return nil, nil
	}
	switch t {
	case Int32Type:
		n, err := strconv.ParseInt(token, 10, 32)
		if err != nil {
			return nil, err
		}
		return int32(n), nil
	case Float32Type:
		f, err := strconv.ParseFloat(token, 32)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case BooleanType:
		if strings.EqualFold(token, "true") {
			return true, nil
		}
		if strings.EqualFold(token, "false") {
			return false, nil
		}
		return nil, strconv.ErrSyntax
	case StringType:
		return token, nil
	}
	return nil, strconv.ErrSyntax
}
