package object

// Class is immutable once declared; method lookup walks the superclass chain.
type Class struct {
	Name       string
	Superclass *Class
	Interfaces []*Interface
	Methods    map[string]*Function
	Getters    map[string]*Function
	Setters    map[string]*Function
	IsAbstract bool
}

func NewClass(name string, superclass *Class) *Class {
	return &Class{
		Name:       name,
		Superclass: superclass,
		Methods:    make(map[string]*Function),
		Getters:    make(map[string]*Function),
		Setters:    make(map[string]*Function),
	}
}

func (c *Class) Type() ObjectType { return CLASS_OBJ }
func (c *Class) Inspect() string  { return c.Name }

// Arity is the arity of init, or 0 without one.
func (c *Class) Arity() int {
	if init := c.FindMethod("init"); init != nil {
		return init.Arity()
	}
	return 0
}

func (c *Class) Call(ctx EvaluatorContext, args []Object, kwargs map[string]Object) (Object, error) {
	return ctx.Instantiate(c, args, kwargs)
}

func (c *Class) FindMethod(name string) *Function {
	for class := c; class != nil; class = class.Superclass {
		if m, ok := class.Methods[name]; ok {
			return m
		}
	}
	return nil
}

func (c *Class) findGetter(name string) *Function {
	for class := c; class != nil; class = class.Superclass {
		if g, ok := class.Getters[name]; ok {
			return g
		}
	}
	return nil
}

func (c *Class) findSetter(name string) *Function {
	for class := c; class != nil; class = class.Superclass {
		if s, ok := class.Setters[name]; ok {
			return s
		}
	}
	return nil
}

// IsSubclassOf reports whether c is other or inherits from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for class := c; class != nil; class = class.Superclass {
		if class == other {
			return true
		}
	}
	return false
}

// Implements reports whether c or an ancestor declared iface.
func (c *Class) Implements(iface *Interface) bool {
	for class := c; class != nil; class = class.Superclass {
		for _, i := range class.Interfaces {
			if i == iface {
				return true
			}
		}
	}
	return false
}

// Instance fields shadow getters, which shadow methods.
type Instance struct {
	Class   *Class
	Fields  map[string]Object
	Getters map[string]*Function
	Setters map[string]*Function
}

func NewInstance(class *Class) *Instance {
	return &Instance{
		Class:   class,
		Fields:  make(map[string]Object),
		Getters: make(map[string]*Function),
		Setters: make(map[string]*Function),
	}
}

func (i *Instance) Type() ObjectType { return INSTANCE_OBJ }
func (i *Instance) Inspect() string {
	if i.IsPlainObject() {
		return inspectFields(i.Fields)
	}
	return i.Class.Name + " instance = " + inspectFields(i.Fields)
}

// ObjectClass is the class of every object literal. A user class named
// Object is a different class.
var ObjectClass = NewClass(ObjectClassName, nil)

// IsPlainObject reports whether the instance came from an object literal.
func (i *Instance) IsPlainObject() bool {
	return i.Class == ObjectClass
}

func (i *Instance) HasField(name string) bool {
	_, ok := i.Fields[name]
	return ok
}

// Getter returns the unbound getter for name, own accessors first.
func (i *Instance) Getter(name string) *Function {
	if g, ok := i.Getters[name]; ok {
		return g
	}
	return i.Class.findGetter(name)
}

func (i *Instance) Setter(name string) *Function {
	if s, ok := i.Setters[name]; ok {
		return s
	}
	return i.Class.findSetter(name)
}

// Method returns name bound to this instance, or nil.
func (i *Instance) Method(name string) *Function {
	if m := i.Class.FindMethod(name); m != nil {
		return m.Bind(i)
	}
	return nil
}

// HasMember is true for fields, accessors and methods.
func (i *Instance) HasMember(name string) bool {
	return i.HasField(name) || i.Getter(name) != nil || i.Class.FindMethod(name) != nil
}

// FieldNames lists the fields in sorted order.
func (i *Instance) FieldNames() []string {
	return sortedKeys(i.Fields)
}
