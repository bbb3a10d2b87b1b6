package environment

// Stack is the ordered sequence of runtime Environments threaded through a
// single executing fiber. Index 0 is always the global declarative
// environment; it is never popped (invariant 1).
//
// Stack is not safe for concurrent use; the engine is single-threaded
// cooperative (spec §5), so this is never required.
type Stack struct {
	envs []*Environment
}

// NewStack creates a Stack seeded with a global environment backed by
// globalObj, wired as the global function slots (ThisBindingStatus
// Initialized, Global true).
func NewStack(globalCompileEnv *CompileTimeEnvironment, globalThis Value) *Stack {
	global := &Environment{
		kind:       Declarative,
		compileEnv: globalCompileEnv,
		slots:      make([]slot, globalCompileEnv.NumBindings()),
		funcSlots: &FunctionSlots{
			Global:            true,
			ThisValue:         globalThis,
			ThisBindingStatus: ThisInitialized,
		},
	}
	for _, i := range globalCompileEnv.VarBindingIndices() {
		global.slots[i] = slot{value: nil, present: true}
	}
	return &Stack{envs: []*Environment{global}}
}

// Len returns the number of environments currently on the stack.
func (s *Stack) Len() int { return len(s.envs) }

// Current returns the topmost environment.
func (s *Stack) Current() *Environment { return s.envs[len(s.envs)-1] }

// CurrentCompileEnvironment returns the compile-time environment mirrored
// by the nearest declarative environment at or below the top of the
// stack (object/with environments have no compile-time counterpart).
func (s *Stack) CurrentCompileEnvironment() *CompileTimeEnvironment {
	for i := len(s.envs) - 1; i >= 0; i-- {
		if e := s.envs[i]; e.kind == Declarative {
			return e.compileEnv
		}
	}
	return nil
}

// At returns the environment at the given stack index.
func (s *Stack) At(index int) *Environment { return s.envs[index] }

func (s *Stack) nearestDeclarativeAncestorFlags() (poisoned, with bool) {
	if len(s.envs) == 0 {
		return false, false
	}
	top := s.envs[len(s.envs)-1]
	if top.kind == Object {
		return s.nearestDeclarativeAncestorFlagsFrom(len(s.envs) - 1)
	}
	return top.poisoned, top.with
}

func (s *Stack) nearestDeclarativeAncestorFlagsFrom(fromIndex int) (poisoned, with bool) {
	for i := fromIndex; i >= 0; i-- {
		if e := s.envs[i]; e.kind == Declarative {
			return e.poisoned, true
		}
	}
	return false, true
}

// PushDeclarative creates a declarative environment with numBindings empty
// slots and pushes it on top of the stack. It inherits `poisoned` from the
// nearest declarative ancestor, and `with` as the OR of the ancestor's
// `with` flag and "the immediate parent is an object environment".
func (s *Stack) PushDeclarative(numBindings int, compileEnv *CompileTimeEnvironment) int {
	poisoned, with := s.nearestDeclarativeAncestorFlags()
	if len(s.envs) > 0 && s.envs[len(s.envs)-1].kind == Object {
		with = true
	}
	env := &Environment{
		kind:       Declarative,
		compileEnv: compileEnv,
		slots:      make([]slot, numBindings),
		poisoned:   poisoned,
		with:       with,
	}
	s.envs = append(s.envs, env)
	return len(s.envs) - 1
}

// PushFunction creates a function environment: a declarative environment
// plus FunctionSlots. this_binding_status is Lexical if lexical is true,
// else Initialized if this is non-nil (thisPresent), else Uninitialized
// (the derived-constructor case). Every slot listed in the compile
// environment's VarBindingIndices is pre-initialized to undefined; all
// other slots start absent, per invariant 2.
func (s *Stack) PushFunction(numBindings int, compileEnv *CompileTimeEnvironment,
	this Value, thisPresent bool, functionObject, newTarget Value, lexical bool) int {
	poisoned, with := s.nearestDeclarativeAncestorFlags()
	if len(s.envs) > 0 && s.envs[len(s.envs)-1].kind == Object {
		with = true
	}

	status := ThisUninitialized
	if lexical {
		status = ThisLexical
	} else if thisPresent {
		status = ThisInitialized
	}

	env := &Environment{
		kind:       Declarative,
		compileEnv: compileEnv,
		slots:      make([]slot, numBindings),
		poisoned:   poisoned,
		with:       with,
		funcSlots: &FunctionSlots{
			ThisValue:         this,
			ThisBindingStatus: status,
			FunctionObject:    functionObject,
			NewTarget:         newTarget,
		},
	}
	for _, i := range compileEnv.VarBindingIndices() {
		if i < numBindings {
			env.slots[i] = slot{value: nil, present: true}
		}
	}
	s.envs = append(s.envs, env)
	return len(s.envs) - 1
}

// PushFunctionInherit is like PushFunction, but the function slots
// (including `this`) are cloned from the nearest enclosing
// declarative-with-slots environment, used for arrow functions.
func (s *Stack) PushFunctionInherit(numBindings int, compileEnv *CompileTimeEnvironment) int {
	parent := s.GetThisEnvironment()

	poisoned, with := s.nearestDeclarativeAncestorFlags()
	if len(s.envs) > 0 && s.envs[len(s.envs)-1].kind == Object {
		with = true
	}

	var inherited FunctionSlots
	if parent != nil && parent.funcSlots != nil {
		inherited = *parent.funcSlots
	}

	env := &Environment{
		kind:       Declarative,
		compileEnv: compileEnv,
		slots:      make([]slot, numBindings),
		poisoned:   poisoned,
		with:       with,
		funcSlots:  &inherited,
	}
	for _, i := range compileEnv.VarBindingIndices() {
		if i < numBindings {
			env.slots[i] = slot{value: nil, present: true}
		}
	}
	s.envs = append(s.envs, env)
	return len(s.envs) - 1
}

// PushObject pushes a `with` environment wrapping obj.
func (s *Stack) PushObject(obj Bindable) int {
	s.envs = append(s.envs, &Environment{kind: Object, obj: obj})
	return len(s.envs) - 1
}

// Pop removes the top environment. It panics if called when only the
// global environment remains: popping the global is a programmer error
// (invariant 1).
func (s *Stack) Pop() {
	if len(s.envs) <= 1 {
		panic("environment: cannot pop the global environment")
	}
	s.envs = s.envs[:len(s.envs)-1]
}

// Truncate resets the stack to its first n environments, used by the
// machine to drop a finished call's environments and, when unwinding to a
// try handler, the environments pushed inside the try block.
func (s *Stack) Truncate(n int) {
	if n < 1 {
		panic("environment: cannot truncate below the global environment")
	}
	s.envs = s.envs[:n]
}

// Extend appends the given environments on top of the stack, the inverse
// of PopToGlobal, used to restore an indirect eval's detached
// environments.
func (s *Stack) Extend(envs []*Environment) {
	s.envs = append(s.envs, envs...)
}

// Snapshot returns a copy of the environments currently above the global
// one, without detaching them from the stack. A function value captures
// this at the point it is created (its [[Environment]]), so that a later
// call can reconstruct the exact lexical chain the function closed over
// by temporarily swapping it in, the same way PopToGlobal/Extend swap an
// eval's caller environments out and back in.
func (s *Stack) Snapshot() []*Environment {
	out := make([]*Environment, len(s.envs)-1)
	copy(out, s.envs[1:])
	return out
}

// PopToGlobal detaches every environment above the global one and returns
// them, used by indirect eval so code runs as though at the global scope
// and the caller's environments can be restored afterwards with Extend.
func (s *Stack) PopToGlobal() []*Environment {
	detached := s.envs[1:]
	out := make([]*Environment, len(detached))
	copy(out, detached)
	s.envs = s.envs[:1]
	return out
}

// PoisonUntilLastFunction sets poisoned = true on every declarative
// environment from the top down, stopping after the nearest function
// environment is poisoned (inclusive), implementing the propagation rule
// of invariant 4.
func (s *Stack) PoisonUntilLastFunction() {
	for i := len(s.envs) - 1; i >= 0; i-- {
		e := s.envs[i]
		if e.kind != Declarative {
			continue
		}
		e.poisoned = true
		if e.funcSlots != nil {
			return
		}
	}
}

// ExtendOuterFunctionEnvironment grows the nearest enclosing function
// environment's binding vector to match its compile environment's current
// binding count, filling new slots with absent. Used by direct non-strict
// eval after compiling new `var` declarations into the enclosing compile
// environment.
func (s *Stack) ExtendOuterFunctionEnvironment() {
	for i := len(s.envs) - 1; i >= 0; i-- {
		e := s.envs[i]
		if e.kind == Declarative && e.funcSlots != nil {
			e.extend(e.compileEnv.NumBindings())
			return
		}
	}
}

// NearestFunctionEnvironmentIndex returns the stack index of the nearest
// declarative environment, from the top down, that owns its own
// FunctionSlots -- the "variable environment" that var/function
// declarations (including those hoisted by a direct eval body run in
// place, see lang/eval.PerformDirectEval) are scoped to. The global
// environment at index 0 always has FunctionSlots (see NewStack), so this
// is guaranteed to return a value.
func (s *Stack) NearestFunctionEnvironmentIndex() int {
	for i := len(s.envs) - 1; i >= 0; i-- {
		if e := s.envs[i]; e.kind == Declarative && e.funcSlots != nil {
			return i
		}
	}
	return 0
}

// HasLexBindingUntilFunctionEnvironment scans from the top down and
// returns the first name in names that already exists as a binding in
// some declarative environment up to and including the first function
// environment encountered (inclusive), and true. If none collide, it
// returns ("", false).
func (s *Stack) HasLexBindingUntilFunctionEnvironment(names []string) (string, bool) {
	for i := len(s.envs) - 1; i >= 0; i-- {
		e := s.envs[i]
		if e.kind != Declarative {
			continue
		}
		for _, name := range names {
			if e.compileEnv.HasLexBinding(name) {
				return name, true
			}
		}
		if e.funcSlots != nil {
			break
		}
	}
	return "", false
}

// GetThisEnvironment returns the nearest environment, from the top down,
// that has a `this` binding: a Function environment whose
// ThisBindingStatus is not Lexical, or the Global environment.
func (s *Stack) GetThisEnvironment() *Environment {
	for i := len(s.envs) - 1; i >= 0; i-- {
		e := s.envs[i]
		if e.kind == Declarative && e.funcSlots != nil && e.funcSlots.ThisBindingStatus != ThisLexical {
			return e
		}
	}
	return nil
}

// PutDeclarativeValue unconditionally stores value at the given
// environment/binding index.
func (s *Stack) PutDeclarativeValue(envIndex, bindingIndex int, value Value) {
	s.envs[envIndex].put(bindingIndex, value)
}

// GetDeclarativeValue reads the value at the given environment/binding
// index. present is false if the slot is absent (temporal dead zone).
func (s *Stack) GetDeclarativeValue(envIndex, bindingIndex int) (value Value, present bool) {
	return s.envs[envIndex].get(bindingIndex)
}

// PutValueIfUninitialized stores value at the given environment/binding
// index only if the slot is currently absent, implementing `var`
// semantics over a pre-existing lexical slot (invariant 4 of §8: writing
// via this operation never replaces an already-present value).
func (s *Stack) PutValueIfUninitialized(envIndex, bindingIndex int, value Value) {
	s.envs[envIndex].putIfAbsent(bindingIndex, value)
}

// ReplaceGlobal swaps out the global environment, used when a realm is
// re-seated.
func (s *Stack) ReplaceGlobal(env *Environment) {
	s.envs[0] = env
}
