package types

// Binary and unary operators on Values.
//
// Add, Equal and NotEqual work on text when either operand is a string.
// Every other arithmetic or relational operator compares numbers.
// None of them fail: mismatched operands fall back to their coerced form.

// Add concatenates when either side is a string, otherwise adds numbers.
func Add(l, r Value) Value {
	if l.kind == KindString || r.kind == KindString {
		return NewString(l.ToString() + r.ToString())
	}
	return NewNumber(l.ToNumber() + r.ToNumber())
}

// Sub subtracts numbers.
func Sub(l, r Value) Value {
	return NewNumber(l.ToNumber() - r.ToNumber())
}

// Mul multiplies numbers.
func Mul(l, r Value) Value {
	return NewNumber(l.ToNumber() * r.ToNumber())
}

// Div divides numbers. Division by zero yields an IEEE infinity or NaN.
func Div(l, r Value) Value {
	return NewNumber(l.ToNumber() / r.ToNumber())
}

// Equal compares text when either side is a string, otherwise numbers.
func Equal(l, r Value) Value {
	return NewBool(equal(l, r))
}

// NotEqual is the negation of Equal.
func NotEqual(l, r Value) Value {
	return NewBool(!equal(l, r))
}

// Less compares numbers.
func Less(l, r Value) Value {
	return NewBool(l.ToNumber() < r.ToNumber())
}

// LessEqual compares numbers.
func LessEqual(l, r Value) Value {
	return NewBool(l.ToNumber() <= r.ToNumber())
}

// Greater compares numbers.
func Greater(l, r Value) Value {
	return NewBool(l.ToNumber() > r.ToNumber())
}

// GreaterEqual compares numbers.
func GreaterEqual(l, r Value) Value {
	return NewBool(l.ToNumber() >= r.ToNumber())
}

// And is the eager logical conjunction of two evaluated Values.
func And(l, r Value) Value {
	return NewBool(l.ToBool() && r.ToBool())
}

// Or is the eager logical disjunction of two evaluated Values.
func Or(l, r Value) Value {
	return NewBool(l.ToBool() || r.ToBool())
}

// Not negates the boolean form of v.
func Not(v Value) Value {
	return NewBool(!v.ToBool())
}

// Negate flips the sign of the numeric form of v.
func Negate(v Value) Value {
	return NewNumber(-v.ToNumber())
}

func equal(l, r Value) bool {
	if l.kind == KindString || r.kind == KindString {
		return l.ToString() == r.ToString()
	}
	return l.ToNumber() == r.ToNumber()
}
