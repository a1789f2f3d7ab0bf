package emit

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/lexer"
	"github.com/cinder-lang/cinder/internal/types"
)

const bcPageSize = 65536

// Every value on the bytecode target is a single i64: integers and
// booleans directly, strings and closures as linear-memory addresses. A
// composite value sits behind an 8-byte header (length for strings, table
// index for closures). Each function literal becomes a table entry taking
// its closure record address as a leading env parameter, so first-class
// calls are uniform indirect calls regardless of capture. Records are
// bump-allocated at runtime from the $hp global, one fresh record per
// construction, so closures made by repeated calls of the same site never
// alias. Synthetic locals carry a '%' in their name, which the source
// language cannot put in an identifier, so they never collide with user
// bindings.

// bcFunc is one compiled function: a table slot plus its emitted body.
type bcFunc struct {
	index    int
	lit      *ast.FunLit
	name     string
	comment  string // source binding name when known
	captures []string
	locals   []string
	lines    []string
}

// bytecodeGen lowers a typed program to a portable sandboxed module.
type bytecodeGen struct {
	info *types.Info
	opts Options

	funcs  []*bcFunc
	funcOf map[*ast.FunLit]*bcFunc

	stringOffsets map[string]int
	stringOrder   []string
	dataEnd       int
	heapStart     int

	callArities map[int]bool
	needsStrEq  bool
}

func newBytecodeGen(info *types.Info, opts Options) *bytecodeGen {
	return &bytecodeGen{
		info:          info,
		opts:          opts,
		funcOf:        make(map[*ast.FunLit]*bcFunc),
		stringOffsets: make(map[string]int),
		dataEnd:       8, // address 0 stays unused
		callArities:   make(map[int]bool),
	}
}

func (g *bytecodeGen) generate(program *ast.Program) (string, *Error) {
	g.collect(program)
	g.heapStart = align8(g.dataEnd)

	for _, fn := range g.funcs {
		if err := g.emitFunc(fn); err != nil {
			return "", err
		}
	}

	main, err := g.emitMain(program)
	if err != nil {
		return "", err
	}

	return g.assemble(main), nil
}

// collect walks the program once in source order, assigning every function
// literal a table slot and every string literal a data offset. Walk order
// fixes both numbering schemes, which keeps emission deterministic.
func (g *bytecodeGen) collect(program *ast.Program) {
	bindingNames := make(map[*ast.FunLit]string)

	ast.Walk(program, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.LetStmt:
			if fn, ok := ast.Unwrap(node.Value).(*ast.FunLit); ok {
				bindingNames[fn] = node.Name.Name
			}
		case *ast.FunLit:
			fn := &bcFunc{
				index:    len(g.funcs),
				lit:      node,
				name:     "$f" + strconv.Itoa(len(g.funcs)),
				comment:  bindingNames[node],
				captures: freeVars(node),
			}
			g.funcs = append(g.funcs, fn)
			g.funcOf[node] = fn
		case *ast.StringLit:
			g.internString(node.Value)
		}
		return true
	})
}

// internString lays out a string constant: an 8-byte little-endian length
// header followed by the bytes, 8-aligned.
func (g *bytecodeGen) internString(value string) int {
	if off, ok := g.stringOffsets[value]; ok {
		return off
	}
	off := g.dataEnd
	g.stringOffsets[value] = off
	g.stringOrder = append(g.stringOrder, value)
	g.dataEnd = align8(off + 8 + len(value))
	return off
}

func align8(n int) int {
	return (n + 7) &^ 7
}

// bcFnCtx is the per-function emission state.
type bcFnCtx struct {
	g       *bytecodeGen
	fn      *bcFunc // nil inside the entry function
	scopes  *scopes
	capture map[string]int

	indent    int
	lines     []string
	locals    []string
	localSeen map[string]bool
	scratch   int
	labels    int
	loops     []string
}

func (g *bytecodeGen) newCtx(fn *bcFunc) *bcFnCtx {
	ctx := &bcFnCtx{
		g:         g,
		fn:        fn,
		scopes:    newScopes(),
		capture:   make(map[string]int),
		localSeen: make(map[string]bool),
	}
	if fn != nil {
		for i, name := range fn.captures {
			ctx.capture[name] = i
		}
		for _, p := range fn.lit.Params {
			ctx.scopes.bind(p.Name)
		}
	}
	return ctx
}

func (c *bcFnCtx) emit(line string) {
	c.lines = append(c.lines, strings.Repeat("  ", c.indent)+line)
}

func (c *bcFnCtx) emitf(format string, args ...interface{}) {
	c.emit(fmt.Sprintf(format, args...))
}

// bindLocal introduces a let-bound name and declares its backing local.
func (c *bcFnCtx) bindLocal(name string) string {
	local := "$" + c.scopes.bind(name)
	c.addLocal(local)
	return local
}

func (c *bcFnCtx) addLocal(local string) {
	if !c.localSeen[local] {
		c.localSeen[local] = true
		c.locals = append(c.locals, local)
	}
}

func (c *bcFnCtx) newScratch() string {
	local := "$%t" + strconv.Itoa(c.scratch)
	c.scratch++
	c.addLocal(local)
	return local
}

func (g *bytecodeGen) emitFunc(fn *bcFunc) *Error {
	ctx := g.newCtx(fn)

	for _, stmt := range fn.lit.Body.Stmts {
		if err := ctx.stmt(stmt); err != nil {
			return err
		}
	}
	if fn.lit.Body.Tail != nil {
		if err := ctx.expr(fn.lit.Body.Tail); err != nil {
			return err
		}
	} else {
		ctx.emit("i64.const 0")
	}

	fn.locals = ctx.locals
	fn.lines = ctx.lines
	return nil
}

// emitMain lowers the top-level statements into the exported entry
// function. Its result is the program's tail value, or zero.
func (g *bytecodeGen) emitMain(program *ast.Program) (*bcFunc, *Error) {
	ctx := g.newCtx(nil)

	for _, stmt := range program.Stmts {
		if err := ctx.stmt(stmt); err != nil {
			return nil, err
		}
	}
	if program.Tail != nil {
		if err := ctx.expr(program.Tail); err != nil {
			return nil, err
		}
	} else {
		ctx.emit("i64.const 0")
	}

	return &bcFunc{
		name:   "$main",
		locals: ctx.locals,
		lines:  ctx.lines,
	}, nil
}

func (c *bcFnCtx) stmt(stmt ast.Stmt) *Error {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		return c.letStmt(s)

	case *ast.AssignStmt:
		// Capture records hold values, not cells, so only locals are
		// assignable on this target.
		local, ok := c.scopes.lookup(s.Name.Name)
		if !ok {
			return &Error{
				Message: "bytecode target cannot assign to captured variable '" + s.Name.Name + "'",
				Span:    s.Span(),
			}
		}
		if err := c.expr(s.Value); err != nil {
			return err
		}
		c.emit("local.set $" + local)
		return nil

	case *ast.ExprStmt:
		if err := c.expr(s.Expr); err != nil {
			return err
		}
		c.emit("drop")
		return nil

	case *ast.ReturnStmt:
		if s.Value != nil {
			if err := c.expr(s.Value); err != nil {
				return err
			}
		} else {
			c.emit("i64.const 0")
		}
		c.emit("return")
		return nil

	case *ast.IfStmt:
		if err := c.cond(s.Cond); err != nil {
			return err
		}
		c.emit("if")
		if err := c.blockStmts(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			c.emit("else")
			if err := c.blockStmts(s.Else); err != nil {
				return err
			}
		}
		c.emit("end")
		return nil

	case *ast.LoopStmt:
		n := strconv.Itoa(c.labels)
		c.labels++
		breakLabel, loopLabel := "$b"+n, "$l"+n

		c.emit("block " + breakLabel)
		c.indent++
		c.emit("loop " + loopLabel)
		c.indent++

		c.loops = append(c.loops, breakLabel)
		err := c.blockStmtsFlat(s.Body)
		c.loops = c.loops[:len(c.loops)-1]
		if err != nil {
			return err
		}

		c.emit("br " + loopLabel)
		c.indent--
		c.emit("end")
		c.indent--
		c.emit("end")
		return nil

	case *ast.BreakStmt:
		if len(c.loops) == 0 {
			return &Error{Message: "break outside of a loop", Span: s.Span()}
		}
		c.emit("br " + c.loops[len(c.loops)-1])
		return nil
	}

	return &Error{Message: "unsupported statement", Span: stmt.Span()}
}

// letStmt stores the value in a fresh local. Function values bind the
// local to the record address before filling capture slots, so a function
// may capture its own binding for recursion.
func (c *bcFnCtx) letStmt(s *ast.LetStmt) *Error {
	if fn, ok := ast.Unwrap(s.Value).(*ast.FunLit); ok {
		compiled := c.g.funcOf[fn]

		c.emitf(";; closure %s = %s", s.Name.Name, compiled.name)
		base := c.newRecord(compiled)
		local := c.bindLocal(s.Name.Name)
		c.emit("local.get " + base)
		c.emit("local.set " + local)

		return c.storeCaptures(compiled, base, s.Span())
	}

	if err := c.expr(s.Value); err != nil {
		return err
	}
	local := c.bindLocal(s.Name.Name)
	c.emit("local.set " + local)
	return nil
}

// newRecord bump-allocates a closure record from the heap pointer and
// fills the table-index slot. Each evaluation of a construction site gets
// a fresh record, so closures from repeated calls never share captures.
// The record address is left in the returned scratch local.
func (c *bcFnCtx) newRecord(compiled *bcFunc) string {
	base := c.newScratch()
	c.emit("global.get $hp")
	c.emit("local.set " + base)
	c.emit("global.get $hp")
	c.emitf("i64.const %d", 8*(1+len(compiled.captures)))
	c.emit("i64.add")
	c.emit("global.set $hp")

	c.emit("local.get " + base)
	c.emit("i32.wrap_i64")
	c.emitf("i64.const %d", compiled.index)
	c.emit("i64.store")
	return base
}

func (c *bcFnCtx) storeCaptures(compiled *bcFunc, base string, span lexer.Span) *Error {
	for i, name := range compiled.captures {
		c.emit("local.get " + base)
		c.emit("i32.wrap_i64")
		if err := c.ident(name, span); err != nil {
			return err
		}
		c.emitf("i64.store offset=%d ;; capture %s", 8*(1+i), name)
	}
	return nil
}

// blockStmts emits a nested block inside an if arm, with its own scope
// frame and one level of indentation.
func (c *bcFnCtx) blockStmts(b *ast.Block) *Error {
	c.indent++
	defer func() { c.indent-- }()
	return c.blockStmtsFlat(b)
}

func (c *bcFnCtx) blockStmtsFlat(b *ast.Block) *Error {
	c.scopes.push()
	defer c.scopes.pop()

	for _, stmt := range b.Stmts {
		if err := c.stmt(stmt); err != nil {
			return err
		}
	}
	if b.Tail != nil {
		if err := c.expr(b.Tail); err != nil {
			return err
		}
		c.emit("drop")
	}
	return nil
}

// cond emits an expression and narrows it to the i32 the branch
// instructions expect.
func (c *bcFnCtx) cond(e ast.Expr) *Error {
	if err := c.expr(e); err != nil {
		return err
	}
	c.emit("i64.const 0")
	c.emit("i64.ne")
	return nil
}

func (c *bcFnCtx) expr(expr ast.Expr) *Error {
	switch e := expr.(type) {
	case *ast.IntegerLit:
		c.emit("i64.const " + e.Text)
		return nil

	case *ast.StringLit:
		c.emitf("i64.const %d ;; %q", c.g.stringOffsets[e.Value], e.Value)
		return nil

	case *ast.BoolLit:
		if e.Value {
			c.emit("i64.const 1")
		} else {
			c.emit("i64.const 0")
		}
		return nil

	case *ast.Ident:
		return c.ident(e.Name, e.Span())

	case *ast.GroupExpr:
		return c.expr(e.Inner)

	case *ast.PrefixExpr:
		return c.prefix(e)

	case *ast.InfixExpr:
		return c.infix(e)

	case *ast.FunLit:
		return c.closure(e)

	case *ast.CallExpr:
		return c.call(e)
	}

	return &Error{Message: "unsupported expression", Span: expr.Span()}
}

// ident loads a name from a local or, failing that, from the enclosing
// closure record through the env parameter.
func (c *bcFnCtx) ident(name string, span lexer.Span) *Error {
	if local, ok := c.scopes.lookup(name); ok {
		c.emit("local.get $" + local)
		return nil
	}
	if idx, ok := c.capture[name]; ok {
		c.emit("local.get $%env")
		c.emit("i32.wrap_i64")
		c.emitf("i64.load offset=%d ;; capture %s", 8*(1+idx), name)
		return nil
	}
	return &Error{Message: "unresolved name '" + name + "'", Span: span}
}

func (c *bcFnCtx) prefix(e *ast.PrefixExpr) *Error {
	switch e.Op {
	case lexer.MINUS:
		c.emit("i64.const 0")
		if err := c.expr(e.Expr); err != nil {
			return err
		}
		c.emit("i64.sub")
		return nil
	case lexer.BANG:
		if err := c.expr(e.Expr); err != nil {
			return err
		}
		c.emit("i64.eqz")
		c.emit("i64.extend_i32_u")
		return nil
	}
	return &Error{Message: "unsupported prefix operator '" + string(e.Op) + "'", Span: e.Span()}
}

func (c *bcFnCtx) infix(e *ast.InfixExpr) *Error {
	// Logical operators short-circuit, so the right operand is emitted
	// inside a branch rather than up front.
	switch e.Op {
	case lexer.AND:
		if err := c.cond(e.Left); err != nil {
			return err
		}
		c.emit("if (result i64)")
		c.indent++
		if err := c.expr(e.Right); err != nil {
			return err
		}
		c.indent--
		c.emit("else")
		c.indent++
		c.emit("i64.const 0")
		c.indent--
		c.emit("end")
		return nil
	case lexer.OR:
		if err := c.cond(e.Left); err != nil {
			return err
		}
		c.emit("if (result i64)")
		c.indent++
		c.emit("i64.const 1")
		c.indent--
		c.emit("else")
		c.indent++
		if err := c.expr(e.Right); err != nil {
			return err
		}
		c.indent--
		c.emit("end")
		return nil
	}

	if err := c.expr(e.Left); err != nil {
		return err
	}
	if err := c.expr(e.Right); err != nil {
		return err
	}

	switch e.Op {
	case lexer.PLUS:
		c.emit("i64.add")
	case lexer.MINUS:
		c.emit("i64.sub")
	case lexer.ASTERISK:
		c.emit("i64.mul")
	case lexer.SLASH:
		c.emit("i64.div_s")
	case lexer.LT:
		c.emit("i64.lt_s")
		c.emit("i64.extend_i32_u")
	case lexer.LE:
		c.emit("i64.le_s")
		c.emit("i64.extend_i32_u")
	case lexer.GT:
		c.emit("i64.gt_s")
		c.emit("i64.extend_i32_u")
	case lexer.GE:
		c.emit("i64.ge_s")
		c.emit("i64.extend_i32_u")
	case lexer.EQ, lexer.NOT_EQ:
		if c.operandIsString(e.Left) {
			c.g.needsStrEq = true
			c.emit("call $streq")
			if e.Op == lexer.NOT_EQ {
				c.emit("i64.eqz")
				c.emit("i64.extend_i32_u")
			}
			return nil
		}
		if e.Op == lexer.EQ {
			c.emit("i64.eq")
		} else {
			c.emit("i64.ne")
		}
		c.emit("i64.extend_i32_u")
	default:
		return &Error{Message: "unsupported operator '" + string(e.Op) + "'", Span: e.Span()}
	}
	return nil
}

func (c *bcFnCtx) operandIsString(e ast.Expr) bool {
	t := c.g.info.TypeOf(e)
	p, ok := t.(*types.Primitive)
	return ok && p.Kind == types.String
}

// closure builds an anonymous function value: a fresh record is filled and
// its address left on the stack.
func (c *bcFnCtx) closure(e *ast.FunLit) *Error {
	compiled := c.g.funcOf[e]

	c.emitf(";; closure %s", compiled.name)
	base := c.newRecord(compiled)
	if err := c.storeCaptures(compiled, base, e.Span()); err != nil {
		return err
	}

	c.emit("local.get " + base)
	return nil
}

// call resolves the callee to a closure record, passes the record address
// as the env argument, and dispatches through the function table.
func (c *bcFnCtx) call(e *ast.CallExpr) *Error {
	if err := c.expr(e.Callee); err != nil {
		return err
	}
	scratch := c.newScratch()
	c.emit("local.set " + scratch)

	c.emit("local.get " + scratch)
	for _, arg := range e.Args {
		if err := c.expr(arg); err != nil {
			return err
		}
	}

	c.emit("local.get " + scratch)
	c.emit("i32.wrap_i64")
	c.emit("i64.load")
	c.emit("i32.wrap_i64")
	c.emitf("call_indirect (type $clo%d)", len(e.Args))

	c.g.callArities[len(e.Args)] = true
	return nil
}

// assemble stitches the sections into one module in a fixed order:
// memory, heap pointer, table, closure types, data segments, helper
// functions, compiled functions, entry function.
func (g *bytecodeGen) assemble(main *bcFunc) string {
	w := newWriter("  ")
	w.line("(module")
	w.in()

	w.line(fmt.Sprintf("(memory (export \"memory\") %d)", g.memoryPages()))
	w.line(fmt.Sprintf("(global $hp (mut i64) (i64.const %d))", g.heapStart))

	if len(g.funcs) > 0 {
		w.line(fmt.Sprintf("(table %d funcref)", len(g.funcs)))
		names := make([]string, len(g.funcs))
		for i, fn := range g.funcs {
			names[i] = fn.name
		}
		w.line("(elem (i32.const 0) " + strings.Join(names, " ") + ")")
	}

	arities := make([]int, 0, len(g.callArities))
	for k := range g.callArities {
		arities = append(arities, k)
	}
	sort.Ints(arities)
	for _, k := range arities {
		params := strings.Repeat(" (param i64)", k+1)
		w.line(fmt.Sprintf("(type $clo%d (func%s (result i64)))", k, params))
	}

	for _, value := range g.stringOrder {
		off := g.stringOffsets[value]
		w.line(fmt.Sprintf("(data (i32.const %d) \"%s\")", off, encodeStringData(value)))
	}

	if g.needsStrEq {
		g.writeStrEq(w)
	}

	for _, fn := range g.funcs {
		g.writeFunc(w, fn, true, "")
	}
	g.writeFunc(w, main, false, " (export \"main\")")

	w.out()
	w.line(")")
	return w.String()
}

func (g *bytecodeGen) writeFunc(w *writer, fn *bcFunc, hasEnv bool, export string) {
	var header strings.Builder
	header.WriteString("(func " + fn.name + export)
	if hasEnv {
		header.WriteString(" (param $%env i64)")
		for _, p := range fn.lit.Params {
			header.WriteString(" (param $" + p.Name + " i64)")
		}
	}
	header.WriteString(" (result i64)")
	if fn.comment != "" {
		header.WriteString(" ;; " + fn.comment)
	}
	w.line(header.String())
	w.in()

	for _, local := range fn.locals {
		w.line("(local " + local + " i64)")
	}
	for _, line := range fn.lines {
		w.line(line)
	}

	w.out()
	w.line(")")
}

// memoryPages sizes linear memory to hold the static data plus heap room
// for runtime closure records, never below the configured floor.
func (g *bytecodeGen) memoryPages() int {
	pages := (g.heapStart + bcPageSize - 1) / bcPageSize
	if pages < 1 {
		pages = 1
	}
	if pages < g.opts.MemoryFloorPages {
		pages = g.opts.MemoryFloorPages
	}
	return pages
}

// writeStrEq emits the byte-compare helper used by string equality.
func (g *bytecodeGen) writeStrEq(w *writer) {
	lines := []string{
		"(func $streq (param $a i64) (param $b i64) (result i64)",
		"  (local $la i64)",
		"  (local $i i64)",
		"  local.get $a",
		"  i32.wrap_i64",
		"  i64.load",
		"  local.set $la",
		"  local.get $b",
		"  i32.wrap_i64",
		"  i64.load",
		"  local.get $la",
		"  i64.ne",
		"  if",
		"    i64.const 0",
		"    return",
		"  end",
		"  block $done",
		"    loop $next",
		"      local.get $i",
		"      local.get $la",
		"      i64.ge_s",
		"      br_if $done",
		"      local.get $a",
		"      i64.const 8",
		"      i64.add",
		"      local.get $i",
		"      i64.add",
		"      i32.wrap_i64",
		"      i64.load8_u",
		"      local.get $b",
		"      i64.const 8",
		"      i64.add",
		"      local.get $i",
		"      i64.add",
		"      i32.wrap_i64",
		"      i64.load8_u",
		"      i64.ne",
		"      if",
		"        i64.const 0",
		"        return",
		"      end",
		"      local.get $i",
		"      i64.const 1",
		"      i64.add",
		"      local.set $i",
		"      br $next",
		"    end",
		"  end",
		"  i64.const 1",
		")",
	}
	for _, line := range lines {
		w.line(line)
	}
}

// encodeStringData renders the in-memory layout of a string constant as an
// escaped data-segment literal: the little-endian length header followed
// by the raw bytes. Non-printable bytes use two-digit hex escapes.
func encodeStringData(value string) string {
	var b strings.Builder
	n := uint64(len(value))
	for i := 0; i < 8; i++ {
		writeDataByte(&b, byte(n>>(8*i)))
	}
	for i := 0; i < len(value); i++ {
		writeDataByte(&b, value[i])
	}
	return b.String()
}

func writeDataByte(b *strings.Builder, c byte) {
	if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
		b.WriteByte(c)
		return
	}
	const hex = "0123456789abcdef"
	b.WriteByte('\\')
	b.WriteByte(hex[c>>4])
	b.WriteByte(hex[c&0x0f])
}
