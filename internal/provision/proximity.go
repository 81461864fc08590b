package provision

import "github.com/derekmerck/tangl-go/internal/graph"

// calculateProximity bands how "close" node is to the requirement's
// active source node: the same node, the same immediate parent scope,
// the same root (episode), or distant. Used by GraphProvisioner to
// rank EXISTING offers against requirements raised elsewhere in the
// graph — nearer nodes are cheaper to wire up than distant ones even
// at equal operation cost.
func calculateProximity(node *graph.Node, ctx *ProvisioningContext) (int, string) {
	if ctx == nil || ctx.Graph == nil {
		return 20, "distant"
	}
	item, ok := ctx.Graph.Get(ctx.CurrentRequirementSourceID.String())
	if !ok {
		return 20, "distant"
	}
	source, ok := item.(*graph.Node)
	if !ok {
		return 20, "distant"
	}
	if node.EntityUID() == source.EntityUID() {
		return 0, "same node"
	}
	srcParent, srcOK := source.Parent()
	nodeParent, nodeOK := node.Parent()
	if srcOK && nodeOK && srcParent.EntityUID() == nodeParent.EntityUID() {
		return 5, "same parent scope"
	}
	srcRoot, nodeRoot := source.Root(), node.Root()
	if srcRoot != nil && nodeRoot != nil && srcRoot.EntityUID() == nodeRoot.EntityUID() {
		return 10, "same root"
	}
	return 20, "distant"
}
