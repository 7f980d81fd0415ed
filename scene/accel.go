package scene

import (
	"sort"
	"time"

	"github.com/SimpsonGSD/path-tracer/log"
	"github.com/SimpsonGSD/path-tracer/types"
	"github.com/chewxy/math32"
)

// Bvh node definition. Each node takes 32 bytes. For an internal node the W
// component of Min holds the left child index and the W component of Max
// the right child index. For a leaf the W components hold the negated index
// of the first primitive and the negated primitive count.
type BvhNode struct {
	Min types.Vec4
	Max types.Vec4
}

func (n *BvhNode) SetChildNodes(left, right int32) {
	n.Min[3] = float32(left)
	n.Max[3] = float32(right)
}

func (n *BvhNode) SetLeaf(firstPrim, count int32) {
	n.Min[3] = -float32(firstPrim)
	n.Max[3] = -float32(count)
}

func (n *BvhNode) IsLeaf() bool {
	return n.Max[3] < 0
}

func (n *BvhNode) LeftChild() int32 {
	return int32(n.Min[3])
}

func (n *BvhNode) RightChild() int32 {
	return int32(n.Max[3])
}

func (n *BvhNode) FirstPrim() int32 {
	return int32(-n.Min[3])
}

func (n *BvhNode) PrimCount() int32 {
	return int32(-n.Max[3])
}

// Slab intersection test against the node bounding box. The interval is
// clipped to the closest hit found so far.
func (n *BvhNode) intersects(r Ray, tMax float32) bool {
	tNear := r.TMin
	tFar := tMax
	for axis := 0; axis < 3; axis++ {
		if math32.Abs(r.Dir[axis]) < floatEpsilon {
			if r.Origin[axis] < n.Min[axis] || r.Origin[axis] > n.Max[axis] {
				return false
			}
			continue
		}

		invD := 1.0 / r.Dir[axis]
		t0 := (n.Min[axis] - r.Origin[axis]) * invD
		t1 := (n.Max[axis] - r.Origin[axis]) * invD
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear = t0
		}
		if t1 < tFar {
			tFar = t1
		}
		if tNear > tFar {
			return false
		}
	}
	return true
}

// The acceleration structure: a bounding volume hierarchy over the scene
// primitives, stored as a flat node array. It is built once and read-only
// afterwards; queries are safe to run concurrently.
type Accel struct {
	nodes []BvhNode

	// Leaf primitive indices into prims, reordered during the build.
	primIndices []int32

	prims []Primitive
}

type accelStats struct {
	skippedItems int
	nodes        int
	leafs        int
	maxDepth     int
}

type accelBuilder struct {
	logger       log.Logger
	nodes        []BvhNode
	primIndices  []int32
	prims        []Primitive
	minLeafItems int
	stats        accelStats
}

// Construct a BVH over the given primitive set using median splits along
// the longest axis of each node's bounds. Malformed primitives are logged
// and excluded from the tree; they never abort the build. minLeafItems
// controls how many primitives can share a leaf.
func BuildAccel(prims []Primitive, minLeafItems int) *Accel {
	if minLeafItems < 1 {
		minLeafItems = 1
	}

	b := &accelBuilder{
		logger:       log.New("bvh"),
		nodes:        make([]BvhNode, 0, 2*len(prims)),
		primIndices:  make([]int32, 0, len(prims)),
		prims:        prims,
		minLeafItems: minLeafItems,
	}

	workList := make([]int32, 0, len(prims))
	for idx := range prims {
		if !prims[idx].Valid() {
			b.logger.Warningf("skipping degenerate primitive %d (type %d)", idx, prims[idx].Type)
			b.stats.skippedItems++
			continue
		}
		workList = append(workList, int32(idx))
	}

	start := time.Now()
	if len(workList) > 0 {
		b.partition(workList, 0)
	}
	b.logger.Debugf(
		"BVH build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d, skipped: %d",
		time.Since(start).Nanoseconds()/1e6,
		b.stats.maxDepth, b.stats.nodes, b.stats.leafs, b.stats.skippedItems,
	)

	return &Accel{
		nodes:       b.nodes,
		primIndices: b.primIndices,
		prims:       prims,
	}
}

// Partition workList and return the created node index.
func (b *accelBuilder) partition(workList []int32, depth int) int32 {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	node := BvhNode{
		Min: types.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}.Vec4(0),
		Max: types.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}.Vec4(0),
	}
	for _, primIndex := range workList {
		bbox := b.prims[primIndex].BBox()
		min := types.MinVec3(node.Min.Vec3(), bbox[0])
		max := types.MaxVec3(node.Max.Vec3(), bbox[1])
		node.Min = min.Vec4(node.Min[3])
		node.Max = max.Vec4(node.Max[3])
	}

	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, node)
	b.stats.nodes++

	if len(workList) <= b.minLeafItems {
		b.makeLeaf(nodeIndex, workList)
		return nodeIndex
	}

	// Median split along the longest bbox axis, ordered by primitive
	// center. Falls back to a leaf when all centers coincide.
	side := b.nodes[nodeIndex].Max.Vec3().Sub(b.nodes[nodeIndex].Min.Vec3())
	axis := 0
	if side[1] > side[axis] {
		axis = 1
	}
	if side[2] > side[axis] {
		axis = 2
	}

	sort.SliceStable(workList, func(i, j int) bool {
		ci := b.prims[workList[i]].Center()
		cj := b.prims[workList[j]].Center()
		return ci[axis] < cj[axis]
	})

	mid := len(workList) / 2
	first := b.prims[workList[0]].Center()
	last := b.prims[workList[len(workList)-1]].Center()
	if last[axis]-first[axis] < floatEpsilon {
		b.makeLeaf(nodeIndex, workList)
		return nodeIndex
	}

	left := b.partition(workList[:mid], depth+1)
	right := b.partition(workList[mid:], depth+1)
	b.nodes[nodeIndex].SetChildNodes(left, right)
	return nodeIndex
}

func (b *accelBuilder) makeLeaf(nodeIndex int32, workList []int32) {
	firstPrim := int32(len(b.primIndices))
	b.primIndices = append(b.primIndices, workList...)
	b.nodes[nodeIndex].SetLeaf(firstPrim, int32(len(workList)))
	b.stats.leafs++
}

// Find the nearest primitive intersection along the ray. Ties within
// floating point tolerance resolve to the first primitive encountered in
// traversal order, which is fixed for a given primitive ordering.
func (a *Accel) NearestHit(r Ray) (HitRecord, bool) {
	var hit HitRecord
	if len(a.nodes) == 0 {
		return hit, false
	}

	bestT := r.TMax
	bestPrim := int32(-1)

	var stack [64]int32
	sp := 0
	stack[sp] = 0
	sp++

	for sp > 0 {
		sp--
		node := &a.nodes[stack[sp]]
		if !node.intersects(r, bestT) {
			continue
		}

		if node.IsLeaf() {
			first := node.FirstPrim()
			count := node.PrimCount()
			for i := first; i < first+count; i++ {
				primIndex := a.primIndices[i]
				clipped := r
				clipped.TMax = bestT
				if t, ok := a.prims[primIndex].Intersect(clipped); ok && t < bestT {
					bestT = t
					bestPrim = primIndex
				}
			}
			continue
		}

		// Push right first so the left subtree is visited first.
		stack[sp] = node.RightChild()
		sp++
		stack[sp] = node.LeftChild()
		sp++
	}

	if bestPrim < 0 {
		return hit, false
	}

	a.prims[bestPrim].FillHit(r, bestT, &hit)
	hit.PrimitiveIndex = bestPrim
	return hit, true
}

// Check whether any primitive intersects the ray interval. Used for shadow
// and occlusion queries; exits on the first intersection found without
// tracking the closest.
func (a *Accel) AnyHit(r Ray) bool {
	if len(a.nodes) == 0 {
		return false
	}

	var stack [64]int32
	sp := 0
	stack[sp] = 0
	sp++

	for sp > 0 {
		sp--
		node := &a.nodes[stack[sp]]
		if !node.intersects(r, r.TMax) {
			continue
		}

		if node.IsLeaf() {
			first := node.FirstPrim()
			count := node.PrimCount()
			for i := first; i < first+count; i++ {
				if _, ok := a.prims[a.primIndices[i]].Intersect(r); ok {
					return true
				}
			}
			continue
		}

		stack[sp] = node.RightChild()
		sp++
		stack[sp] = node.LeftChild()
		sp++
	}

	return false
}

// Number of primitives included in the tree.
func (a *Accel) PrimitiveCount() int {
	return len(a.primIndices)
}

// Number of tree nodes.
func (a *Accel) NodeCount() int {
	return len(a.nodes)
}
