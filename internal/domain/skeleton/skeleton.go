// Package skeleton holds a joint hierarchy with per-frame local transforms and
// resolves world-space (global) transforms by forward kinematics.
//
// Joints live in an arena addressed by stable integer index; each joint stores
// the index of its parent, or NoParent for the root.
package skeleton

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// NoParent marks the root joint.
const NoParent = -1

// Joint is one node of the hierarchy.
type Joint struct {
	Name     string
	Parent   int
	Offset   mgl64.Vec3
	Channels []Channel
}

// IsRoot reports whether j has no parent.
func (j Joint) IsRoot() bool { return j.Parent == NoParent }

// Local is a joint's transform relative to its parent for one frame.
type Local struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

// Matrix returns translation * rotation.
func (l Local) Matrix() mgl64.Mat4 {
	t := l.Translation
	return mgl64.Translate3D(t[0], t[1], t[2]).Mul4(l.Rotation.Mat4())
}

// Pose is the set of resolved global transforms of every joint for one frame.
type Pose struct {
	Frame   int
	Globals []mgl64.Mat4
}

// Position returns the world position of joint j (translation column of its global transform).
func (p *Pose) Position(j int) mgl64.Vec3 {
	return p.Globals[j].Col(3).Vec3()
}

// Skeleton is an immutable joint hierarchy plus its animation frames.
// Resolve memoizes the most recent frame; that cache is guarded by a mutex.
type Skeleton struct {
	joints    []Joint
	frames    [][]Local // [frame][joint]
	frameTime time.Duration
	root      int
	order     []int // root-to-leaf
	names     map[string]int

	mu     sync.Mutex
	cached *Pose
}

// New validates the hierarchy and frame data and builds a Skeleton.
// Every frame must hold exactly one Local per joint.
func New(joints []Joint, frames [][]Local, frameTime time.Duration) (*Skeleton, error) {
	n := len(joints)
	if n == 0 {
		return nil, fmt.Errorf("%w: no joints", ErrInvalidHierarchy)
	}

	s := &Skeleton{
		joints:    append([]Joint(nil), joints...),
		frameTime: frameTime,
		root:      NoParent,
		names:     make(map[string]int, n),
	}

	children := make([][]int, n)
	for i, j := range joints {
		if j.Name == "" {
			return nil, fmt.Errorf("%w: joint %d has no name", ErrInvalidHierarchy, i)
		}
		if _, dup := s.names[j.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate joint name %q", ErrInvalidHierarchy, j.Name)
		}
		s.names[j.Name] = i

		switch {
		case j.Parent == NoParent:
			if s.root != NoParent {
				return nil, fmt.Errorf("%w: joints %q and %q are both roots", ErrInvalidHierarchy, joints[s.root].Name, j.Name)
			}
			s.root = i
		case j.Parent < 0 || j.Parent >= n || j.Parent == i:
			return nil, fmt.Errorf("%w: joint %q has parent index %d", ErrInvalidHierarchy, j.Name, j.Parent)
		default:
			children[j.Parent] = append(children[j.Parent], i)
		}
	}
	if s.root == NoParent {
		return nil, fmt.Errorf("%w: no root joint", ErrInvalidHierarchy)
	}

	// Breadth-first from the root; anything left unvisited sits on a cycle.
	s.order = make([]int, 0, n)
	s.order = append(s.order, s.root)
	for head := 0; head < len(s.order); head++ {
		s.order = append(s.order, children[s.order[head]]...)
	}
	if len(s.order) != n {
		return nil, fmt.Errorf("%w: %d joints unreachable from root (cycle)", ErrInvalidHierarchy, n-len(s.order))
	}

	s.frames = make([][]Local, len(frames))
	for f, locals := range frames {
		if len(locals) != n {
			return nil, fmt.Errorf("%w: frame %d has %d transforms for %d joints", ErrInvalidHierarchy, f, len(locals), n)
		}
		s.frames[f] = append([]Local(nil), locals...)
	}
	return s, nil
}

func (s *Skeleton) NumJoints() int { return len(s.joints) }
func (s *Skeleton) NumFrames() int { return len(s.frames) }

// FrameTime is the sampling interval between frames.
func (s *Skeleton) FrameTime() time.Duration { return s.frameTime }

// Duration is the length of the whole clip.
func (s *Skeleton) Duration() time.Duration { return time.Duration(len(s.frames)) * s.frameTime }

// Root returns the index of the root joint.
func (s *Skeleton) Root() int { return s.root }

// Joint returns joint i.
func (s *Skeleton) Joint(i int) (Joint, error) {
	if err := s.checkJoint(i); err != nil {
		return Joint{}, err
	}
	return s.joints[i], nil
}

// Joints returns a copy of all joints in index order.
func (s *Skeleton) Joints() []Joint {
	return append([]Joint(nil), s.joints...)
}

// JointIndex looks a joint up by name.
func (s *Skeleton) JointIndex(name string) (int, bool) {
	i, ok := s.names[name]
	return i, ok
}

// Local returns joint j's local transform at frame f.
func (s *Skeleton) Local(j, f int) (Local, error) {
	if err := s.checkJoint(j); err != nil {
		return Local{}, err
	}
	if err := s.checkFrame(f); err != nil {
		return Local{}, err
	}
	return s.frames[f][j], nil
}

// Resolve computes the global transform of every joint at frame f, composing
// parent * local in root-to-leaf order. The returned Pose is the caller's own;
// changing it does not affect later lookups.
func (s *Skeleton) Resolve(f int) (*Pose, error) {
	pose, err := s.resolve(f)
	if err != nil {
		return nil, err
	}
	return &Pose{Frame: pose.Frame, Globals: append([]mgl64.Mat4(nil), pose.Globals...)}, nil
}

// resolve returns the cached pose for the latest frame, computing it on a
// miss. A cached Pose is never modified, only replaced.
func (s *Skeleton) resolve(f int) (*Pose, error) {
	if err := s.checkFrame(f); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil && s.cached.Frame == f {
		return s.cached, nil
	}

	locals := s.frames[f]
	globals := make([]mgl64.Mat4, len(s.joints))
	for _, j := range s.order {
		local := locals[j].Matrix()
		if p := s.joints[j].Parent; p != NoParent {
			globals[j] = globals[p].Mul4(local)
		} else {
			globals[j] = local
		}
	}
	s.cached = &Pose{Frame: f, Globals: globals}
	return s.cached, nil
}

// GlobalTransform returns joint j's world transform at frame f.
func (s *Skeleton) GlobalTransform(j, f int) (mgl64.Mat4, error) {
	if err := s.checkJoint(j); err != nil {
		return mgl64.Mat4{}, err
	}
	pose, err := s.resolve(f)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	return pose.Globals[j], nil
}

// GlobalPosition returns joint j's world position at frame f.
func (s *Skeleton) GlobalPosition(j, f int) (mgl64.Vec3, error) {
	m, err := s.GlobalTransform(j, f)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return m.Col(3).Vec3(), nil
}

// RelativePosition returns joint j's world position minus its parent's world
// position. This is a difference of global positions, not the offset expressed
// in the parent's rotated frame. The root returns its global position.
func (s *Skeleton) RelativePosition(j, f int) (mgl64.Vec3, error) {
	if err := s.checkJoint(j); err != nil {
		return mgl64.Vec3{}, err
	}
	pose, err := s.resolve(f)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return relative(pose, s.joints[j].Parent, j), nil
}

// RelativePositionIn is RelativePosition against an already resolved pose.
func (s *Skeleton) RelativePositionIn(pose *Pose, j int) mgl64.Vec3 {
	return relative(pose, s.joints[j].Parent, j)
}

func relative(pose *Pose, parent, j int) mgl64.Vec3 {
	pos := pose.Position(j)
	if parent != NoParent {
		pos = pos.Sub(pose.Position(parent))
	}
	return pos
}

// Crop returns a skeleton without the frames before start.
func (s *Skeleton) Crop(start int) (*Skeleton, error) {
	if err := s.checkFrame(start); err != nil {
		return nil, err
	}
	return New(s.joints, s.frames[start:], s.frameTime)
}

// LocalRotations returns every joint's normalized local rotation indexed
// [joint][frame].
func (s *Skeleton) LocalRotations() [][]mgl64.Quat {
	out := make([][]mgl64.Quat, len(s.joints))
	for j := range s.joints {
		seq := make([]mgl64.Quat, len(s.frames))
		for f, locals := range s.frames {
			seq[f] = locals[j].Rotation.Normalize()
		}
		out[j] = seq
	}
	return out
}

func (s *Skeleton) checkJoint(j int) error {
	if j < 0 || j >= len(s.joints) {
		return fmt.Errorf("%w: joint %d not in [0,%d)", ErrOutOfRange, j, len(s.joints))
	}
	return nil
}

func (s *Skeleton) checkFrame(f int) error {
	if f < 0 || f >= len(s.frames) {
		return fmt.Errorf("%w: frame %d not in [0,%d)", ErrOutOfRange, f, len(s.frames))
	}
	return nil
}
