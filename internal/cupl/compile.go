package cupl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/galcupl/cupl/internal/gal"
)

type Symbol struct {
	Pin       int
	ActiveLow bool
}

// Compile builds a GAL fuse map from CUPL content.
func Compile(c Content) (*gal.GAL, error) {
	chip, err := gal.ParseChip(c.Device)
	if err != nil {
		return nil, err
	}
	bp := gal.NewBlueprint(chip)
	if partno := strings.TrimSpace(c.Meta["Partno"]); partno != "" {
		bp.Sig = []byte(partno)
	}

	symbols := make(map[string]Symbol)
	for pin, def := range c.Pins {
		if pin < 1 || pin > chip.NumPins() {
			return nil, fmt.Errorf("pin %d out of range for %s", pin, chip.Name())
		}
		symbols[def.Name] = Symbol{Pin: pin, ActiveLow: def.ActiveLow}
	}
	// Add power pins.
	symbols["VCC"] = Symbol{Pin: chip.NumPins(), ActiveLow: false}
	symbols["GND"] = Symbol{Pin: chip.NumPins() / 2, ActiveLow: false}

	// Desugar set/bus operations (field-name LHS) before processing.
	c.Equations = desugarSetOps(c)

	aliases := make(map[string]Expr)
	for _, eq := range c.Equations {
		info, err := parseEquationLHS(eq.LHS)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", eq.Line, err)
		}
		if info.ActiveLow {
			if _, ok := symbols[info.Name]; !ok {
				// Allow active-low on AR/SP: they're not pins.
				if !isGlobalSignal(info.Name) {
					return nil, fmt.Errorf("line %d: active-low output %q is not a defined pin", eq.Line, info.Name)
				}
			}
		}
		if _, ok := symbols[info.Name]; !ok {
			if !eq.Append && !isGlobalSignal(info.Name) && info.Extension == "" {
				aliases[info.Name] = eq.Expr
			}
		}
	}

	type compiledEq struct {
		eq         Equation
		terms      []Term
		activeLow  bool
		outputName string
		extension  string
	}
	compiled := make([]compiledEq, 0, len(c.Equations))
	globalAccum := make(map[string][]Term) // "AR", "SP"
	globalLine := make(map[string]int)

	for _, eq := range c.Equations {
		info, err := parseEquationLHS(eq.LHS)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", eq.Line, err)
		}

		if isGlobalSignal(info.Name) {
			chosenTerms, err := exprToTerms(eq.Expr, c.Fields, aliases)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", eq.Line, err)
			}
			name := strings.ToUpper(info.Name)
			if _, exists := globalAccum[name]; exists && !eq.Append {
				return nil, fmt.Errorf("line %d: %s already defined", eq.Line, name)
			}
			globalAccum[name] = append(globalAccum[name], chosenTerms...)
			globalLine[name] = eq.Line
			continue
		}

		if _, ok := symbols[info.Name]; !ok {
			// Non-output equation: already captured as an alias above.
			continue
		}

		// Polarity optimization: if the top-level expression is NOT, unwrap
		// it and flip polarity (compile the inner expression with inverted
		// active level). This matches WinCUPL's behavior.
		compileExpr := eq.Expr
		polarityFlipped := false
		if notExpr, ok := eq.Expr.(ExprNot); ok && !eq.Append && info.Extension != "E" && info.Extension != "R" {
			compileExpr = notExpr.X
			polarityFlipped = true
		}

		chosenTerms, err := exprToTerms(compileExpr, c.Fields, aliases)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", eq.Line, err)
		}

		finalActiveLow := info.ActiveLow
		if polarityFlipped {
			finalActiveLow = !finalActiveLow
		}

		compiled = append(compiled, compiledEq{eq: eq, terms: chosenTerms, activeLow: finalActiveLow, outputName: info.Name, extension: info.Extension})
		// Mark feedback use based on actual terms (post range expansion).
		for _, term := range chosenTerms {
			for _, lit := range term.Lits {
				if sym, ok := symbols[lit.Name]; ok {
					if olmc, ok := chip.PinToOLMC(sym.Pin); ok {
						bp.OLMC[olmc].Feedback = true
					}
				}
			}
		}
	}

	// Accumulate all terms per output (including APPEND) before minimizing
	// and mapping to columns. Clock/reset equations accumulate the same way
	// on every chip; gal.Build rejects them on chips other than GAL20RA10.
	type olmcAccum struct {
		terms []Term
		line  int
		lhs   string
	}
	accum := make(map[int]*olmcAccum)
	oeAccum := make(map[int]*olmcAccum)
	clkAccum := make(map[int]*olmcAccum)
	arstAccum := make(map[int]*olmcAccum)
	aprstAccum := make(map[int]*olmcAccum)
	activeLowByOLMC := make(map[int]bool)
	registeredByOLMC := make(map[int]bool)

	addTo := func(m map[int]*olmcAccum, olmc int, eq Equation, terms []Term, label string) error {
		if a, exists := m[olmc]; exists {
			if !eq.Append {
				return fmt.Errorf("line %d: %s for %q already defined", eq.Line, label, a.lhs)
			}
			a.terms = append(a.terms, terms...)
			return nil
		}
		m[olmc] = &olmcAccum{terms: terms, line: eq.Line, lhs: ""}
		return nil
	}

	for _, item := range compiled {
		eq := item.eq
		lhs := item.outputName
		sym, ok := symbols[lhs]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown output %q", eq.Line, lhs)
		}
		olmc, ok := chip.PinToOLMC(sym.Pin)
		if !ok {
			return nil, fmt.Errorf("line %d: %q is not a valid output pin", eq.Line, lhs)
		}

		switch item.extension {
		case "E":
			if err := addTo(oeAccum, olmc, eq, item.terms, "output enable"); err != nil {
				return nil, err
			}
			oeAccum[olmc].lhs = lhs
			continue
		case "CLK":
			if err := addTo(clkAccum, olmc, eq, item.terms, "clock"); err != nil {
				return nil, err
			}
			clkAccum[olmc].lhs = lhs
			continue
		case "ARST":
			if err := addTo(arstAccum, olmc, eq, item.terms, "async reset"); err != nil {
				return nil, err
			}
			arstAccum[olmc].lhs = lhs
			continue
		case "APRST":
			if err := addTo(aprstAccum, olmc, eq, item.terms, "async preset"); err != nil {
				return nil, err
			}
			aprstAccum[olmc].lhs = lhs
			continue
		case "", "R":
			// falls through to main output accumulation below
		default:
			return nil, fmt.Errorf("line %d: unrecognized equation extension %q", eq.Line, item.extension)
		}

		if a, exists := accum[olmc]; exists {
			if !eq.Append {
				return nil, fmt.Errorf("line %d: output %q already defined", eq.Line, lhs)
			}
			a.terms = append(a.terms, item.terms...)
		} else {
			accum[olmc] = &olmcAccum{terms: item.terms, line: eq.Line, lhs: lhs}
			activeLowByOLMC[olmc] = item.activeLow || sym.ActiveLow
			registeredByOLMC[olmc] = item.extension == "R"
		}
	}

	// First pass: minimize and assign Active/Mode for every declared
	// output, without resolving pin references to columns yet - the
	// GAL22V10 feedback-pin-flip below needs every OLMC's final polarity
	// decided first.
	for olmc, a := range accum {
		a.terms = minimizeTerms(a.terms)
		if activeLowByOLMC[olmc] {
			bp.OLMC[olmc].Active = gal.ActiveLow
		} else {
			bp.OLMC[olmc].Active = gal.ActiveHigh
		}
		if registeredByOLMC[olmc] {
			bp.OLMC[olmc].Mode = gal.PinModeRegistered
		} else if _, hasOE := oeAccum[olmc]; hasOE {
			bp.OLMC[olmc].Mode = gal.PinModeTristate
		} else {
			bp.OLMC[olmc].Mode = gal.PinModeCombinatorial
		}
	}
	for olmc := range oeAccum {
		oeAccum[olmc].terms = minimizeTerms(oeAccum[olmc].terms)
	}
	for olmc := range clkAccum {
		clkAccum[olmc].terms = minimizeTerms(clkAccum[olmc].terms)
	}
	for olmc := range arstAccum {
		arstAccum[olmc].terms = minimizeTerms(arstAccum[olmc].terms)
	}
	for olmc := range aprstAccum {
		aprstAccum[olmc].terms = minimizeTerms(aprstAccum[olmc].terms)
	}
	for name := range globalAccum {
		globalAccum[name] = minimizeTerms(globalAccum[name])
	}

	// needs_flip: on GAL22V10, registered + active-high outputs have their
	// feedback taken from the register (pre-XOR gate). Since XOR=1 inverts
	// the output, the feedback value is the complement of the pin value.
	// To compensate, flip the negation of any AND-array reference to such
	// pins, before those references are resolved to columns.
	flipNames := make(map[string]bool)
	if chip == gal.ChipGAL22V10 {
		for name, sym := range symbols {
			if olmc, ok := chip.PinToOLMC(sym.Pin); ok {
				if bp.OLMC[olmc].Mode == gal.PinModeRegistered && bp.OLMC[olmc].Active == gal.ActiveHigh {
					flipNames[name] = true
				}
			}
		}
	}
	flipTerms := func(terms []Term) []Term {
		if len(flipNames) == 0 {
			return terms
		}
		out := make([]Term, len(terms))
		for i, t := range terms {
			lits := make([]Literal, len(t.Lits))
			for j, l := range t.Lits {
				lits[j] = l
				if flipNames[l.Name] {
					lits[j].Neg = !l.Neg
				}
			}
			out[i] = Term{Lits: lits}
		}
		return out
	}

	mapAndAssign := func(terms []Term, line int) (*gal.Term, error) {
		cols, err := mapTermsToColumns(flipTerms(terms), symbols, chip)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		return &gal.Term{Line: line, Rows: cols}, nil
	}

	for olmc, a := range accum {
		term, err := mapAndAssign(a.terms, a.line)
		if err != nil {
			return nil, err
		}
		bp.OLMC[olmc].Output = term
	}
	for olmc, oe := range oeAccum {
		term, err := mapAndAssign(oe.terms, oe.line)
		if err != nil {
			return nil, err
		}
		bp.OLMC[olmc].TriCon = term
	}
	for olmc, clk := range clkAccum {
		term, err := mapAndAssign(clk.terms, clk.line)
		if err != nil {
			return nil, err
		}
		bp.OLMC[olmc].Clock = term
	}
	for olmc, arst := range arstAccum {
		term, err := mapAndAssign(arst.terms, arst.line)
		if err != nil {
			return nil, err
		}
		bp.OLMC[olmc].ARST = term
	}
	for olmc, aprst := range aprstAccum {
		term, err := mapAndAssign(aprst.terms, aprst.line)
		if err != nil {
			return nil, err
		}
		bp.OLMC[olmc].APRST = term
	}
	if terms, ok := globalAccum["AR"]; ok {
		term, err := mapAndAssign(terms, globalLine["AR"])
		if err != nil {
			return nil, err
		}
		bp.AR = term
	}
	if terms, ok := globalAccum["SP"]; ok {
		term, err := mapAndAssign(terms, globalLine["SP"])
		if err != nil {
			return nil, err
		}
		bp.SP = term
	}

	return gal.Build(bp)
}

// isGlobalSignal returns true for AR and SP (global signals, not pins).
func isGlobalSignal(name string) bool {
	n := strings.ToUpper(name)
	return n == "AR" || n == "SP"
}

// desugarSetOps expands field-name LHS equations into per-bit equations.
func desugarSetOps(c Content) []Equation {
	var out []Equation
	for _, eq := range c.Equations {
		lhs := strings.TrimSpace(eq.LHS)
		// Strip ! prefix for lookup.
		lhsClean := lhs
		if strings.HasPrefix(lhsClean, "!") {
			lhsClean = strings.TrimSpace(lhsClean[1:])
		}
		field, ok := c.Fields[lhsClean]
		if !ok {
			out = append(out, eq)
			continue
		}
		// LHS is a field name: expand to per-bit equations.
		expanded := expandFieldExpr(eq.Expr, field, c.Fields, eq.Line, eq.Append, lhs)
		out = append(out, expanded...)
	}
	return out
}

func expandFieldExpr(expr Expr, outField Field, fields map[string]Field, line int, isAppend bool, lhs string) []Equation {
	width := len(outField.Bits)
	bitExprs := exprToBitExprs(expr, width, fields)
	var out []Equation
	for i, be := range bitExprs {
		out = append(out, Equation{
			Line:   line,
			LHS:    outField.Bits[i].Name,
			Expr:   be,
			Append: isAppend,
		})
	}
	return out
}

// exprToBitExprs breaks an expression into per-bit expressions for a field of given width.
func exprToBitExprs(expr Expr, width int, fields map[string]Field) []Expr {
	switch e := expr.(type) {
	case ExprAnd:
		leftBits := exprToBitExprs(e.A, width, fields)
		rightBits := exprToBitExprs(e.B, width, fields)
		out := make([]Expr, width)
		for i := 0; i < width; i++ {
			out[i] = ExprAnd{A: leftBits[i], B: rightBits[i]}
		}
		return out
	case ExprOr:
		leftBits := exprToBitExprs(e.A, width, fields)
		rightBits := exprToBitExprs(e.B, width, fields)
		out := make([]Expr, width)
		for i := 0; i < width; i++ {
			out[i] = ExprOr{A: leftBits[i], B: rightBits[i]}
		}
		return out
	case ExprXor:
		leftBits := exprToBitExprs(e.A, width, fields)
		rightBits := exprToBitExprs(e.B, width, fields)
		out := make([]Expr, width)
		for i := 0; i < width; i++ {
			out[i] = ExprXor{A: leftBits[i], B: rightBits[i]}
		}
		return out
	case ExprNot:
		innerBits := exprToBitExprs(e.X, width, fields)
		out := make([]Expr, width)
		for i := 0; i < width; i++ {
			out[i] = ExprNot{X: innerBits[i]}
		}
		return out
	case ExprIdent:
		// Check if this ident is a field name.
		if f, ok := fields[e.Name]; ok && len(f.Bits) == width {
			out := make([]Expr, width)
			for i, b := range f.Bits {
				out[i] = ExprIdent{Name: b.Name}
			}
			return out
		}
		// Scalar: broadcast to all bits.
		out := make([]Expr, width)
		for i := 0; i < width; i++ {
			out[i] = e
		}
		return out
	case ExprIdentList:
		if len(e.Names) == width {
			out := make([]Expr, width)
			for i, name := range e.Names {
				out[i] = ExprIdent{Name: name}
			}
			return out
		}
		// Width mismatch: broadcast whole expression.
		out := make([]Expr, width)
		for i := 0; i < width; i++ {
			out[i] = expr
		}
		return out
	default:
		// Scalar expression: broadcast.
		out := make([]Expr, width)
		for i := 0; i < width; i++ {
			out[i] = expr
		}
		return out
	}
}

// DNF handling.

type Literal struct {
	Name string
	Neg  bool
}

type Term struct {
	Lits []Literal
}

func exprToTerms(expr Expr, fields map[string]Field, aliases map[string]Expr) ([]Term, error) {
	nnf, err := toNNF(expr, false, aliases, make(map[string]bool))
	if err != nil {
		return nil, err
	}
	terms, err := dnf(nnf, fields)
	if err != nil {
		return nil, err
	}
	return terms, nil
}

func toNNF(expr Expr, neg bool, aliases map[string]Expr, visiting map[string]bool) (Expr, error) {
	switch e := expr.(type) {
	case ExprConst:
		if neg {
			return ExprConst{Value: !e.Value}, nil
		}
		return e, nil
	case ExprIdent:
		if alias, ok := aliases[e.Name]; ok {
			if visiting[e.Name] {
				return nil, fmt.Errorf("cyclic alias %q", e.Name)
			}
			visiting[e.Name] = true
			out, err := toNNF(alias, neg, aliases, visiting)
			delete(visiting, e.Name)
			return out, err
		}
		if neg {
			return ExprNot{X: e}, nil
		}
		return e, nil
	case ExprFieldRange:
		if neg {
			return ExprNot{X: e}, nil
		}
		return e, nil
	case ExprFieldEquality:
		if neg {
			return ExprNot{X: e}, nil
		}
		return e, nil
	case ExprNot:
		return toNNF(e.X, !neg, aliases, visiting)
	case ExprAnd:
		if neg {
			left, err := toNNF(e.A, true, aliases, visiting)
			if err != nil {
				return nil, err
			}
			right, err := toNNF(e.B, true, aliases, visiting)
			if err != nil {
				return nil, err
			}
			return ExprOr{A: left, B: right}, nil
		}
		left, err := toNNF(e.A, false, aliases, visiting)
		if err != nil {
			return nil, err
		}
		right, err := toNNF(e.B, false, aliases, visiting)
		if err != nil {
			return nil, err
		}
		return ExprAnd{A: left, B: right}, nil
	case ExprOr:
		if neg {
			left, err := toNNF(e.A, true, aliases, visiting)
			if err != nil {
				return nil, err
			}
			right, err := toNNF(e.B, true, aliases, visiting)
			if err != nil {
				return nil, err
			}
			return ExprAnd{A: left, B: right}, nil
		}
		left, err := toNNF(e.A, false, aliases, visiting)
		if err != nil {
			return nil, err
		}
		right, err := toNNF(e.B, false, aliases, visiting)
		if err != nil {
			return nil, err
		}
		return ExprOr{A: left, B: right}, nil
	case ExprXor:
		// XOR(a,b) = OR(AND(a, NOT(b)), AND(NOT(a), b))
		// XNOR(a,b) = OR(AND(a, b), AND(NOT(a), NOT(b)))
		if neg {
			left, err := toNNF(ExprAnd{A: e.A, B: e.B}, false, aliases, visiting)
			if err != nil {
				return nil, err
			}
			right, err := toNNF(ExprAnd{A: ExprNot{X: e.A}, B: ExprNot{X: e.B}}, false, aliases, visiting)
			if err != nil {
				return nil, err
			}
			return ExprOr{A: left, B: right}, nil
		}
		left, err := toNNF(ExprAnd{A: e.A, B: ExprNot{X: e.B}}, false, aliases, visiting)
		if err != nil {
			return nil, err
		}
		right, err := toNNF(ExprAnd{A: ExprNot{X: e.A}, B: e.B}, false, aliases, visiting)
		if err != nil {
			return nil, err
		}
		return ExprOr{A: left, B: right}, nil
	default:
		return expr, nil
	}
}

type LHSInfo struct {
	Name      string
	ActiveLow bool
	Extension string // "", "R", "E", "CLK", "ARST", "APRST"
}

func parseEquationLHS(lhs string) (LHSInfo, error) {
	lhs = strings.TrimSpace(lhs)
	if lhs == "" {
		return LHSInfo{}, fmt.Errorf("invalid equation LHS")
	}
	info := LHSInfo{}
	if strings.HasPrefix(lhs, "!") {
		info.ActiveLow = true
		lhs = strings.TrimSpace(lhs[1:])
	}
	if lhs == "" {
		return LHSInfo{}, fmt.Errorf("invalid equation LHS")
	}
	// Split on "." to extract the extension.
	if idx := strings.Index(lhs, "."); idx >= 0 {
		ext := strings.ToUpper(lhs[idx+1:])
		switch ext {
		case "OE":
			ext = "E" // WinCUPL uses .OE, normalize to .E
		case "D":
			ext = "R" // WinCUPL uses .D for registered, normalize to .R
		case "", "R", "E", "CLK", "ARST", "APRST":
			// already canonical
		default:
			return LHSInfo{}, fmt.Errorf("unrecognized equation extension %q", lhs[idx:])
		}
		info.Extension = ext
		lhs = lhs[:idx]
	}
	info.Name = lhs
	return info, nil
}

func dnf(expr Expr, fields map[string]Field) ([]Term, error) {
	switch e := expr.(type) {
	case ExprConst:
		if e.Value {
			return []Term{{}}, nil
		}
		return nil, nil
	case ExprIdent:
		return []Term{{Lits: []Literal{{Name: e.Name}}}}, nil
	case ExprNot:
		switch inner := e.X.(type) {
		case ExprIdent:
			return []Term{{Lits: []Literal{{Name: inner.Name, Neg: true}}}}, nil
		case ExprFieldRange:
			return fieldRangeTerms(inner, fields, true)
		case ExprFieldEquality:
			return fieldEqualityTermsNeg(inner, fields)
		default:
			return nil, fmt.Errorf("unsupported negation of %T", inner)
		}
	case ExprFieldRange:
		return fieldRangeTerms(e, fields, false)
	case ExprFieldEquality:
		return fieldEqualityTerms(e, fields)
	case ExprAnd:
		left, err := dnf(e.A, fields)
		if err != nil {
			return nil, err
		}
		right, err := dnf(e.B, fields)
		if err != nil {
			return nil, err
		}
		return andDNF(left, right), nil
	case ExprOr:
		left, err := dnf(e.A, fields)
		if err != nil {
			return nil, err
		}
		right, err := dnf(e.B, fields)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	default:
		return nil, fmt.Errorf("unsupported expression %T", expr)
	}
}

func fieldEqualityTerms(fe ExprFieldEquality, fields map[string]Field) ([]Term, error) {
	field, ok := fields[fe.Field]
	if !ok {
		return nil, fmt.Errorf("unknown field %q", fe.Field)
	}
	width := len(field.Bits)
	if width == 0 {
		return nil, fmt.Errorf("field %q has no bits", fe.Field)
	}

	projValue := projectValue(field, fe.Value)
	projMask := projectValue(field, fe.Mask)

	var lits []Literal
	for i := 0; i < width; i++ {
		bitPos := width - 1 - i // MSB first
		if (projMask>>bitPos)&1 == 0 {
			continue // don't-care bit
		}
		neg := (projValue>>bitPos)&1 == 0
		lits = append(lits, Literal{Name: field.Bits[i].Name, Neg: neg})
	}
	return []Term{{Lits: lits}}, nil
}

func fieldEqualityTermsNeg(fe ExprFieldEquality, fields map[string]Field) ([]Term, error) {
	field, ok := fields[fe.Field]
	if !ok {
		return nil, fmt.Errorf("unknown field %q", fe.Field)
	}
	width := len(field.Bits)
	if width == 0 {
		return nil, fmt.Errorf("field %q has no bits", fe.Field)
	}

	projValue := projectValue(field, fe.Value)
	projMask := projectValue(field, fe.Mask)

	// Negation of AND(lits) = OR of negated literals (one term per
	// care-bit, each with that bit flipped).
	var terms []Term
	for i := 0; i < width; i++ {
		bitPos := width - 1 - i
		if (projMask>>bitPos)&1 == 0 {
			continue
		}
		neg := (projValue>>bitPos)&1 == 1
		terms = append(terms, Term{Lits: []Literal{{Name: field.Bits[i].Name, Neg: neg}}})
	}
	return terms, nil
}

func andDNF(a, b []Term) []Term {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	var out []Term
	for _, tb := range b {
		for _, ta := range a {
			if t, ok := mergeTerms(ta, tb); ok {
				out = append(out, t)
			}
		}
	}
	return out
}

func mergeTerms(a, b Term) (Term, bool) {
	m := map[string]bool{}
	for _, l := range a.Lits {
		m[l.Name] = l.Neg
	}
	for _, l := range b.Lits {
		if neg, ok := m[l.Name]; ok {
			if neg != l.Neg {
				return Term{}, false
			}
			continue
		}
		m[l.Name] = l.Neg
	}
	lits := make([]Literal, 0, len(m))
	for name, neg := range m {
		lits = append(lits, Literal{Name: name, Neg: neg})
	}
	// Stable order for deterministic output.
	sort.Slice(lits, func(i, j int) bool { return lits[i].Name < lits[j].Name })
	return Term{Lits: lits}, true
}

func fieldRangeTerms(fr ExprFieldRange, fields map[string]Field, negated bool) ([]Term, error) {
	field, ok := fields[fr.Field]
	if !ok {
		return nil, fmt.Errorf("unknown field %q", fr.Field)
	}
	width := len(field.Bits)
	if width == 0 {
		return nil, fmt.Errorf("field %q has no bits", field.Name)
	}
	lo, hi := fr.Lo, fr.Hi
	projLo := projectValue(field, lo)
	projHi := projectValue(field, hi)
	if projLo > projHi {
		projLo, projHi = projHi, projLo
	}
	maxVal := uint64(1<<width) - 1

	var ranges [][2]uint64
	if !negated {
		ranges = append(ranges, [2]uint64{projLo, projHi})
	} else {
		if projLo > 0 {
			ranges = append(ranges, [2]uint64{0, projLo - 1})
		}
		if projHi < maxVal {
			ranges = append(ranges, [2]uint64{projHi + 1, maxVal})
		}
	}

	var out []Term
	for _, r := range ranges {
		cubes := rangeToCubes(r[0], r[1], width)
		for _, c := range cubes {
			term := Term{}
			for bit := 0; bit < width; bit++ {
				if (c.mask>>bit)&1 == 0 {
					continue
				}
				idx := width - 1 - bit // map LSB->last
				bitVal := (c.value >> bit) & 1
				lit := Literal{Name: field.Bits[idx].Name, Neg: bitVal == 0}
				term.Lits = append(term.Lits, lit)
			}
			out = append(out, term)
		}
	}
	return out, nil
}

type cube struct {
	mask  uint64
	value uint64
}

func rangeToCubes(lo, hi uint64, width int) []cube {
	if lo > hi {
		return nil
	}
	var out []cube
	for lo <= hi {
		remaining := hi - lo + 1
		blockSize := maxBlockSize(lo, remaining)
		k := uint64(0)
		for (uint64(1) << k) < blockSize {
			k++
		}
		mask := uint64(1<<width) - 1
		if k > 0 {
			mask &^= (uint64(1) << k) - 1
		}
		out = append(out, cube{mask: mask, value: lo})
		lo += blockSize
	}
	return out
}

func maxBlockSize(lo, remaining uint64) uint64 {
	if remaining == 0 {
		return 0
	}
	// Largest power of two <= remaining.
	maxPow := uint64(1)
	for (maxPow << 1) <= remaining {
		maxPow <<= 1
	}
	if lo == 0 {
		return maxPow
	}
	lsb := lo & -lo
	if lsb < maxPow {
		return lsb
	}
	return maxPow
}

func projectValue(field Field, v uint64) uint64 {
	width := len(field.Bits)
	if width == 0 {
		return 0
	}
	allNumbered := true
	for _, b := range field.Bits {
		if !b.HasNumber {
			allNumbered = false
			break
		}
	}
	if !allNumbered {
		mask := uint64(1<<width) - 1
		return v & mask
	}
	var out uint64
	for _, b := range field.Bits {
		out <<= 1
		if (v>>b.BitNumber)&1 == 1 {
			out |= 1
		}
	}
	return out
}

// chipKindFor translates a gal.Chip into this package's own chipKind, so
// pin-to-column resolution (a frontend concern) doesn't need to import
// the core's chip-geometry internals beyond what ParseChip already gives
// it.
func chipKindFor(chip gal.Chip) chipKind {
	switch chip {
	case gal.ChipGAL16V8:
		return chipKind16V8
	case gal.ChipGAL20V8:
		return chipKind20V8
	case gal.ChipGAL22V10:
		return chipKind22V10
	case gal.ChipGAL20RA10:
		return chipKind20RA10
	default:
		return chipKind16V8
	}
}

func mapTermsToColumns(terms []Term, symbols map[string]Symbol, chip gal.Chip) ([][]gal.Literal, error) {
	kind := chipKindFor(chip)
	var out [][]gal.Literal
	for _, t := range terms {
		var row []gal.Literal
		for _, lit := range t.Lits {
			sym, ok := symbols[lit.Name]
			if !ok {
				return nil, fmt.Errorf("unknown symbol %q", lit.Name)
			}
			col, err := pinToColumn(kind, sym.Pin)
			if err != nil {
				return nil, err
			}
			neg := lit.Neg
			if sym.ActiveLow {
				neg = !neg
			}
			row = append(row, gal.Literal{Column: col, Neg: neg})
		}
		out = append(out, row)
	}
	return out, nil
}
