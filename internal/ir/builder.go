package ir

// Builder is the abstract "code-generator collaborator" interface: the
// Lowerer depends only on this contract, never on a concrete backend.
// Builder is implemented in this package by InMemoryBuilder, the only
// implementation the core uses; a machine-code backend could implement
// the same interface over LLVM, a different bytecode, etc.
type Builder interface {
	NewBlock(fn *Function, name string) *Block
	SetInsertBlock(b *Block)
	InsertBlock() *Block

	ConstFloat(v float64) *Value
	ConstI32(v int32) *Value
	Alloca(name string) *Value
	Load(slot *Value) *Value
	Store(slot *Value, v *Value)
	BinOp(op Op, l, r *Value) *Value
	FCmpULT(l, r *Value) *Value
	FCmpUNE(l, r *Value) *Value
	Widen(boolVal *Value) *Value
	Call(callee *Function, args []*Value) *Value
	Br(target *Block)
	CondBr(cond *Value, then, els *Block)
	Phi(incoming []PhiEdge) *Value
	Ret(v *Value)

	VerifyFunction(fn *Function) error
	OptimizeFunction(fn *Function)
}

// InMemoryBuilder emits directly into in-memory Blocks/Functions. It is
// the only Builder implementation the core itself needs, since the
// spec's out-of-scope code generator consumes the finished Module, not
// the Builder.
type InMemoryBuilder struct {
	block  *Block
	nextID int
}

// NewInMemoryBuilder constructs a Builder with no current insertion
// point; SetInsertBlock must be called before emitting instructions.
func NewInMemoryBuilder() *InMemoryBuilder {
	return &InMemoryBuilder{}
}

func (b *InMemoryBuilder) id() int {
	b.nextID++
	return b.nextID
}

func (b *InMemoryBuilder) NewBlock(fn *Function, name string) *Block {
	blk := &Block{Name: name, Func: fn}
	fn.Blocks = append(fn.Blocks, blk)
	return blk
}

func (b *InMemoryBuilder) SetInsertBlock(blk *Block) { b.block = blk }
func (b *InMemoryBuilder) InsertBlock() *Block        { return b.block }

func (b *InMemoryBuilder) ConstFloat(v float64) *Value {
	return b.block.append(&Value{ID: b.id(), Op: OpConst, Type: TypeDouble, Const: v})
}

func (b *InMemoryBuilder) ConstI32(v int32) *Value {
	return b.block.append(&Value{ID: b.id(), Op: OpConst, Type: TypeI32, Const: float64(v)})
}

func (b *InMemoryBuilder) Alloca(name string) *Value {
	return b.block.append(&Value{ID: b.id(), Op: OpAlloca, Type: TypeDouble, Name: name})
}

func (b *InMemoryBuilder) Load(slot *Value) *Value {
	return b.block.append(&Value{ID: b.id(), Op: OpLoad, Type: TypeDouble, Args: []*Value{slot}})
}

func (b *InMemoryBuilder) Store(slot, v *Value) {
	b.block.append(&Value{ID: b.id(), Op: OpStore, Args: []*Value{slot, v}})
}

func (b *InMemoryBuilder) BinOp(op Op, l, r *Value) *Value {
	return b.block.append(&Value{ID: b.id(), Op: op, Type: TypeDouble, Args: []*Value{l, r}})
}

func (b *InMemoryBuilder) FCmpULT(l, r *Value) *Value {
	return b.block.append(&Value{ID: b.id(), Op: OpFCmpULT, Type: TypeDouble, Args: []*Value{l, r}})
}

func (b *InMemoryBuilder) FCmpUNE(l, r *Value) *Value {
	return b.block.append(&Value{ID: b.id(), Op: OpFCmpUNE, Type: TypeDouble, Args: []*Value{l, r}})
}

func (b *InMemoryBuilder) Widen(boolVal *Value) *Value {
	return b.block.append(&Value{ID: b.id(), Op: OpWiden, Type: TypeDouble, Args: []*Value{boolVal}})
}

func (b *InMemoryBuilder) Call(callee *Function, args []*Value) *Value {
	return b.block.append(&Value{ID: b.id(), Op: OpCall, Type: callee.RetType, Args: args, Callee: callee})
}

func (b *InMemoryBuilder) Br(target *Block) {
	b.block.append(&Value{ID: b.id(), Op: OpBr, Then: target})
}

func (b *InMemoryBuilder) CondBr(cond *Value, then, els *Block) {
	b.block.append(&Value{ID: b.id(), Op: OpCondBr, Args: []*Value{cond}, Then: then, Else: els})
}

func (b *InMemoryBuilder) Phi(incoming []PhiEdge) *Value {
	return b.block.append(&Value{ID: b.id(), Op: OpPhi, Type: TypeDouble, Incoming: incoming})
}

func (b *InMemoryBuilder) Ret(v *Value) {
	var args []*Value
	if v != nil {
		args = []*Value{v}
	}
	b.block.append(&Value{ID: b.id(), Op: OpRet, Args: args})
}
