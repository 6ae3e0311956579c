package ast

type NodeType string

const (
	NodeIdentifier             NodeType = "Identifier"
	NodeIntegerLiteral         NodeType = "IntegerLiteral"
	NodeFloatLiteral           NodeType = "FloatLiteral"
	NodeBooleanLiteral         NodeType = "BooleanLiteral"
	NodeBinaryExpression       NodeType = "BinaryExpression"
	NodeIfExpression           NodeType = "IfExpression"
	NodeLambdaExpression       NodeType = "LambdaExpression"
	NodeApplication            NodeType = "Application"
	NodeLetExpression          NodeType = "LetExpression"
	NodeLetRecExpression       NodeType = "LetRecExpression"
	NodeBeginExpression        NodeType = "BeginExpression"
	NodeBorrowExpression       NodeType = "BorrowExpression"
	NodeMutBorrowExpression    NodeType = "MutBorrowExpression"
	NodeBoxExpression          NodeType = "BoxExpression"
	NodeUnboxExpression        NodeType = "UnboxExpression"
	NodeDerefExpression        NodeType = "DerefExpression"
	NodeAssignExpression       NodeType = "AssignExpression"
	NodeDisplayExpression      NodeType = "DisplayExpression"
	NodeDebugExpression        NodeType = "DebugExpression"
	NodeSimpleTypeExpression   NodeType = "SimpleTypeExpression"
	NodeGenericTypeExpression  NodeType = "GenericTypeExpression"
	NodeFunctionTypeExpression NodeType = "FunctionTypeExpression"
)

type Node interface {
	NodeType() NodeType
	Span() Span
	isNode()
}

type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// IsZero reports whether the span was never set (nodes built without a reader).
func (s Span) IsZero() bool {
	return s.Start.Line == 0 && s.Start.Column == 0 && s.End.Line == 0 && s.End.Column == 0
}

type nodeImpl struct {
	Type NodeType `json:"type"`
	span Span
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (n nodeImpl) Span() Span         { return n.span }
func (nodeImpl) isNode()              {}
func (n *nodeImpl) setSpan(span Span) { n.span = span }

type spanSetter interface {
	setSpan(Span)
}

// IsNil reports whether node is nil, including a typed nil pointer held in the interface.
func IsNil(node Node) bool {
	switch n := node.(type) {
	case nil:
		return true
	case *Identifier:
		return n == nil
	case *IntegerLiteral:
		return n == nil
	case *FloatLiteral:
		return n == nil
	case *BooleanLiteral:
		return n == nil
	case *BinaryExpression:
		return n == nil
	case *IfExpression:
		return n == nil
	case *LambdaExpression:
		return n == nil
	case *Application:
		return n == nil
	case *LetExpression:
		return n == nil
	case *LetRecExpression:
		return n == nil
	case *BeginExpression:
		return n == nil
	case *BorrowExpression:
		return n == nil
	case *BoxExpression:
		return n == nil
	case *UnboxExpression:
		return n == nil
	case *DerefExpression:
		return n == nil
	case *AssignExpression:
		return n == nil
	case *DisplayExpression:
		return n == nil
	case *DebugExpression:
		return n == nil
	case *SimpleTypeExpression:
		return n == nil
	case *GenericTypeExpression:
		return n == nil
	case *FunctionTypeExpression:
		return n == nil
	}
	return false
}

// SetSpan records the source span for a node. Readers call it once, right after construction.
func SetSpan(node Node, span Span) {
	if IsNil(node) {
		return
	}
	if s, ok := node.(spanSetter); ok {
		s.setSpan(span)
	}
}

// Marker interfaces.

type Expression interface {
	Node
	expressionNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

type TypeExpression interface {
	Node
	typeExpressionNode()
}

type typeExpressionMarker struct{}

func (typeExpressionMarker) typeExpressionNode() {}

// Identifier

type Identifier struct {
	nodeImpl
	expressionMarker

	Name string `json:"name"`
}

func NewIdentifier(name string) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name}
}

// Literals

type IntegerLiteral struct {
	nodeImpl
	expressionMarker

	Value int64 `json:"value"`
}

func NewIntegerLiteral(value int64) *IntegerLiteral {
	return &IntegerLiteral{nodeImpl: newNodeImpl(NodeIntegerLiteral), Value: value}
}

type FloatLiteral struct {
	nodeImpl
	expressionMarker

	Value float64 `json:"value"`
}

func NewFloatLiteral(value float64) *FloatLiteral {
	return &FloatLiteral{nodeImpl: newNodeImpl(NodeFloatLiteral), Value: value}
}

type BooleanLiteral struct {
	nodeImpl
	expressionMarker

	Value bool `json:"value"`
}

func NewBooleanLiteral(value bool) *BooleanLiteral {
	return &BooleanLiteral{nodeImpl: newNodeImpl(NodeBooleanLiteral), Value: value}
}

// Operators

type BinaryOperator string

const (
	OperatorAdd          BinaryOperator = "+"
	OperatorSubtract     BinaryOperator = "-"
	OperatorMultiply     BinaryOperator = "*"
	OperatorDivide       BinaryOperator = "/"
	OperatorEqual        BinaryOperator = "="
	OperatorGreater      BinaryOperator = ">"
	OperatorLess         BinaryOperator = "<"
	OperatorGreaterEqual BinaryOperator = ">="
	OperatorLessEqual    BinaryOperator = "<="
)

// IsComparison reports whether the operator yields a Bool.
func (op BinaryOperator) IsComparison() bool {
	switch op {
	case OperatorEqual, OperatorGreater, OperatorLess, OperatorGreaterEqual, OperatorLessEqual:
		return true
	}
	return false
}

// IsArithmetic reports whether the operator yields its operand type.
func (op BinaryOperator) IsArithmetic() bool {
	switch op {
	case OperatorAdd, OperatorSubtract, OperatorMultiply, OperatorDivide:
		return true
	}
	return false
}

// LookupOperator maps a surface symbol to its operator.
func LookupOperator(symbol string) (BinaryOperator, bool) {
	op := BinaryOperator(symbol)
	if op.IsArithmetic() || op.IsComparison() {
		return op, true
	}
	return "", false
}

type BinaryExpression struct {
	nodeImpl
	expressionMarker

	Operator BinaryOperator `json:"operator"`
	Left     Expression     `json:"left"`
	Right    Expression     `json:"right"`
}

func NewBinaryExpression(operator BinaryOperator, left, right Expression) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression), Operator: operator, Left: left, Right: right}
}

// Control flow and binding forms

type IfExpression struct {
	nodeImpl
	expressionMarker

	Condition Expression `json:"condition"`
	Then      Expression `json:"then"`
	Else      Expression `json:"else"`
}

func NewIfExpression(condition, then, otherwise Expression) *IfExpression {
	return &IfExpression{nodeImpl: newNodeImpl(NodeIfExpression), Condition: condition, Then: then, Else: otherwise}
}

type LambdaExpression struct {
	nodeImpl
	expressionMarker

	Param     *Identifier    `json:"param"`
	ParamType TypeExpression `json:"paramType,omitempty"`
	Body      Expression     `json:"body"`
}

func NewLambdaExpression(param *Identifier, paramType TypeExpression, body Expression) *LambdaExpression {
	return &LambdaExpression{nodeImpl: newNodeImpl(NodeLambdaExpression), Param: param, ParamType: paramType, Body: body}
}

type Application struct {
	nodeImpl
	expressionMarker

	Func Expression `json:"func"`
	Arg  Expression `json:"arg"`
}

func NewApplication(fn, arg Expression) *Application {
	return &Application{nodeImpl: newNodeImpl(NodeApplication), Func: fn, Arg: arg}
}

type LetExpression struct {
	nodeImpl
	expressionMarker

	ID    *Identifier `json:"id"`
	Value Expression  `json:"value"`
	Body  Expression  `json:"body"`
}

func NewLetExpression(id *Identifier, value, body Expression) *LetExpression {
	return &LetExpression{nodeImpl: newNodeImpl(NodeLetExpression), ID: id, Value: value, Body: body}
}

// LetRecExpression binds ID before Value is evaluated so Value may refer to itself.
type LetRecExpression struct {
	nodeImpl
	expressionMarker

	ID    *Identifier `json:"id"`
	Value Expression  `json:"value"`
	Body  Expression  `json:"body"`
}

func NewLetRecExpression(id *Identifier, value, body Expression) *LetRecExpression {
	return &LetRecExpression{nodeImpl: newNodeImpl(NodeLetRecExpression), ID: id, Value: value, Body: body}
}

type BeginExpression struct {
	nodeImpl
	expressionMarker

	Body []Expression `json:"body"`
}

func NewBeginExpression(body []Expression) *BeginExpression {
	return &BeginExpression{nodeImpl: newNodeImpl(NodeBeginExpression), Body: body}
}

// Ownership forms

// BorrowExpression is `& target` or, when Mutable, `! target`.
type BorrowExpression struct {
	nodeImpl
	expressionMarker

	Target  Expression `json:"target"`
	Mutable bool       `json:"mutable"`
}

func NewBorrowExpression(target Expression, mutable bool) *BorrowExpression {
	kind := NodeBorrowExpression
	if mutable {
		kind = NodeMutBorrowExpression
	}
	return &BorrowExpression{nodeImpl: newNodeImpl(kind), Target: target, Mutable: mutable}
}

type BoxExpression struct {
	nodeImpl
	expressionMarker

	Value Expression `json:"value"`
}

func NewBoxExpression(value Expression) *BoxExpression {
	return &BoxExpression{nodeImpl: newNodeImpl(NodeBoxExpression), Value: value}
}

type UnboxExpression struct {
	nodeImpl
	expressionMarker

	Target Expression `json:"target"`
}

func NewUnboxExpression(target Expression) *UnboxExpression {
	return &UnboxExpression{nodeImpl: newNodeImpl(NodeUnboxExpression), Target: target}
}

type DerefExpression struct {
	nodeImpl
	expressionMarker

	Target Expression `json:"target"`
}

func NewDerefExpression(target Expression) *DerefExpression {
	return &DerefExpression{nodeImpl: newNodeImpl(NodeDerefExpression), Target: target}
}

// AssignExpression writes Value through the mutable reference Target.
type AssignExpression struct {
	nodeImpl
	expressionMarker

	Target Expression `json:"target"`
	Value  Expression `json:"value"`
}

func NewAssignExpression(target, value Expression) *AssignExpression {
	return &AssignExpression{nodeImpl: newNodeImpl(NodeAssignExpression), Target: target, Value: value}
}

// Output forms

type DisplayExpression struct {
	nodeImpl
	expressionMarker

	Value Expression `json:"value"`
}

func NewDisplayExpression(value Expression) *DisplayExpression {
	return &DisplayExpression{nodeImpl: newNodeImpl(NodeDisplayExpression), Value: value}
}

type DebugExpression struct {
	nodeImpl
	expressionMarker

	Value Expression `json:"value"`
}

func NewDebugExpression(value Expression) *DebugExpression {
	return &DebugExpression{nodeImpl: newNodeImpl(NodeDebugExpression), Value: value}
}

// Type expressions

// SimpleTypeExpression names a scalar type (Int, Float, Bool).
type SimpleTypeExpression struct {
	nodeImpl
	typeExpressionMarker

	Name string `json:"name"`
}

func NewSimpleTypeExpression(name string) *SimpleTypeExpression {
	return &SimpleTypeExpression{nodeImpl: newNodeImpl(NodeSimpleTypeExpression), Name: name}
}

// GenericTypeExpression applies Box, Ref or MutRef to an argument type.
type GenericTypeExpression struct {
	nodeImpl
	typeExpressionMarker

	Base     string         `json:"base"`
	Argument TypeExpression `json:"argument"`
}

func NewGenericTypeExpression(base string, argument TypeExpression) *GenericTypeExpression {
	return &GenericTypeExpression{nodeImpl: newNodeImpl(NodeGenericTypeExpression), Base: base, Argument: argument}
}

type FunctionTypeExpression struct {
	nodeImpl
	typeExpressionMarker

	Param  TypeExpression `json:"param"`
	Result TypeExpression `json:"result"`
}

func NewFunctionTypeExpression(param, result TypeExpression) *FunctionTypeExpression {
	return &FunctionTypeExpression{nodeImpl: newNodeImpl(NodeFunctionTypeExpression), Param: param, Result: result}
}
