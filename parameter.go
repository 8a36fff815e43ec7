// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pvl

import "strings"

// A Parameter is a node of a parsed label: an Assignment carrying one
// Value, or an Aggregate owning an ordered list of child Parameters.
// An Aggregate owns its children exclusively; the parent back-reference
// is non-owning and used only for pathname computation.
type Parameter struct {
	Name    string
	Type    ParameterType
	Comment string

	// Value is the Assignment's value; nil for an Aggregate or for an
	// Assignment with no value.
	Value *Value

	children []*Parameter
	parent   *Parameter
}

// NewAssignment returns an Assignment Parameter with no value.
func NewAssignment(name string) *Parameter {
	return &Parameter{Name: name, Type: Token}
}

// NewAggregate returns an empty Aggregate Parameter. A type outside the
// Aggregate class is corrected to Group.
func NewAggregate(name string, aggregateType ParameterType) *Parameter {
	if aggregateType&Aggregate == 0 {
		aggregateType = Group
	}
	return &Parameter{Name: name, Type: aggregateType}
}

// IsAggregate reports whether the Parameter is an Aggregate.
func (p *Parameter) IsAggregate() bool { return p.Type&Aggregate != 0 }

// IsAssignment reports whether the Parameter is an Assignment.
func (p *Parameter) IsAssignment() bool { return p.Type == Token }

// Parent returns the owning Aggregate, or nil at the root.
func (p *Parameter) Parent() *Parameter { return p.parent }

// Children returns the Aggregate's child list. The slice is owned by
// the Aggregate; use Append and Remove to restructure the tree.
func (p *Parameter) Children() []*Parameter { return p.children }

// Append adds a child to the Aggregate, taking ownership, and returns
// the Aggregate. A child still owned elsewhere is detached first.
func (p *Parameter) Append(child *Parameter) *Parameter {
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = p
	p.children = append(p.children, child)
	return p
}

// Remove detaches a child from the Aggregate and returns it with its
// parent cleared, or nil when the child is not present.
func (p *Parameter) Remove(child *Parameter) *Parameter {
	for i, c := range p.children {
		if c == child {
			p.children = append(p.children[:i], p.children[i+1:]...)
			child.parent = nil
			return child
		}
	}
	return nil
}

// pullBack detaches and returns the last child, or nil when empty.
func (p *Parameter) pullBack() *Parameter {
	if len(p.children) == 0 {
		return nil
	}
	return p.Remove(p.children[len(p.children)-1])
}

// Root returns the top of the tree containing the Parameter.
func (p *Parameter) Root() *Parameter {
	for p.parent != nil {
		p = p.parent
	}
	return p
}

// Pathname returns the full slash-delimited path of the Parameter from
// its root. The root contributes no segment; a parentless Container is
// "/".
func (p *Parameter) Pathname() string {
	if p.parent == nil && p.Type == Container {
		return "/"
	}
	var segments []string
	for node := p; node != nil; node = node.parent {
		if node.parent == nil && node.Type == Container {
			break
		}
		segments = append(segments, node.Name)
	}
	var path strings.Builder
	for i := len(segments) - 1; i >= 0; i-- {
		path.WriteByte('/')
		path.WriteString(segments[i])
	}
	return path.String()
}

// Walk visits every descendant of the Parameter in depth-first
// pre-order (each parent before its children). The walk stops when fn
// returns false; Walk reports whether the walk ran to completion.
func (p *Parameter) Walk(fn func(*Parameter) bool) bool {
	for _, child := range p.children {
		if !fn(child) {
			return false
		}
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// String lists the Parameter in PVL notation with default Lister
// settings.
func (p *Parameter) String() string {
	var b strings.Builder
	NewLister(&b).Write(p)
	return b.String()
}
