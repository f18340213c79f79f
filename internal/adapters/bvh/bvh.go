// Package bvh reads Biovision Hierarchy motion files into a skeleton.
//
// The HIERARCHY section is read token by token, so line breaks inside it are
// not significant. The MOTION section is read line by line: each frame is one
// line carrying exactly one value per declared channel.
package bvh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/okian/motionmap/internal/domain/skeleton"
)

const maxLineBytes = 16 << 20

// EndSite is the terminal offset of a leaf joint. It carries no channels and is
// kept only for drawing bone tips.
type EndSite struct {
	Parent int
	Offset mgl64.Vec3
}

// Clip is a parsed BVH file.
type Clip struct {
	Skeleton *skeleton.Skeleton
	EndSites []EndSite
	// Channels is the number of values per frame line.
	Channels int
}

// Load parses the file at path.
func Load(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bvh: %w", err)
	}
	defer f.Close()

	clip, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

// Parse reads a BVH document from r.
func Parse(r io.Reader) (*Clip, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	p := &parser{sc: sc}

	if err := p.expect("HIERARCHY"); err != nil {
		return nil, err
	}
	if err := p.expect("ROOT"); err != nil {
		return nil, err
	}
	if err := p.joint(skeleton.NoParent); err != nil {
		return nil, err
	}

	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	if tok == "ROOT" {
		return nil, p.errorf("multiple ROOT joints are not supported")
	}
	if tok != "MOTION" {
		return nil, p.errorf("expected MOTION, got %q", tok)
	}

	frames, frameTime, err := p.header()
	if err != nil {
		return nil, err
	}
	locals, err := p.motion(frames)
	if err != nil {
		return nil, err
	}

	skel, err := skeleton.New(p.joints, locals, frameTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	return &Clip{Skeleton: skel, EndSites: p.endSites, Channels: p.channels}, nil
}

type parser struct {
	sc       *bufio.Scanner
	line     int
	pending  []string
	joints   []skeleton.Joint
	endSites []EndSite
	channels int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, p.line, fmt.Sprintf(format, args...))
}

// next returns the next whitespace-separated token, crossing line breaks.
func (p *parser) next() (string, error) {
	for len(p.pending) == 0 {
		if !p.sc.Scan() {
			if err := p.sc.Err(); err != nil {
				return "", fmt.Errorf("read bvh: %w", err)
			}
			return "", p.errorf("unexpected end of input")
		}
		p.line++
		p.pending = strings.Fields(p.sc.Text())
	}
	tok := p.pending[0]
	p.pending = p.pending[1:]
	return tok, nil
}

func (p *parser) expect(want string) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok != want {
		return p.errorf("expected %q, got %q", want, tok)
	}
	return nil
}

func (p *parser) float() (float64, error) {
	tok, err := p.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, p.errorf("bad number %q", tok)
	}
	return v, nil
}

func (p *parser) vec3() (mgl64.Vec3, error) {
	var v mgl64.Vec3
	for i := range v {
		f, err := p.float()
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

// joint parses "name { ... }" after a ROOT or JOINT keyword.
func (p *parser) joint(parent int) error {
	name, err := p.next()
	if err != nil {
		return err
	}
	idx := len(p.joints)
	p.joints = append(p.joints, skeleton.Joint{Name: name, Parent: parent})
	if err := p.expect("{"); err != nil {
		return err
	}

	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch tok {
		case "OFFSET":
			off, err := p.vec3()
			if err != nil {
				return err
			}
			p.joints[idx].Offset = off
		case "CHANNELS":
			chans, err := p.channelList()
			if err != nil {
				return err
			}
			p.joints[idx].Channels = chans
			p.channels += len(chans)
		case "JOINT":
			if err := p.joint(idx); err != nil {
				return err
			}
		case "End":
			if err := p.endSite(idx); err != nil {
				return err
			}
		case "}":
			return nil
		default:
			return p.errorf("unexpected %q in joint %q", tok, name)
		}
	}
}

func (p *parser) channelList() ([]skeleton.Channel, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return nil, p.errorf("bad channel count %q", tok)
	}
	chans := make([]skeleton.Channel, n)
	for i := range chans {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		c, err := skeleton.ParseChannel(tok)
		if err != nil {
			return nil, p.errorf("bad channel %q", tok)
		}
		chans[i] = c
	}
	return chans, nil
}

func (p *parser) endSite(parent int) error {
	for _, want := range []string{"Site", "{", "OFFSET"} {
		if err := p.expect(want); err != nil {
			return err
		}
	}
	off, err := p.vec3()
	if err != nil {
		return err
	}
	if err := p.expect("}"); err != nil {
		return err
	}
	p.endSites = append(p.endSites, EndSite{Parent: parent, Offset: off})
	return nil
}

// header reads "Frames: N" and "Frame Time: t".
func (p *parser) header() (int, time.Duration, error) {
	if err := p.expect("Frames:"); err != nil {
		return 0, 0, err
	}
	tok, err := p.next()
	if err != nil {
		return 0, 0, err
	}
	frames, err := strconv.Atoi(tok)
	if err != nil || frames < 0 {
		return 0, 0, p.errorf("bad frame count %q", tok)
	}
	if err := p.expect("Frame"); err != nil {
		return 0, 0, err
	}
	if err := p.expect("Time:"); err != nil {
		return 0, 0, err
	}
	secs, err := p.float()
	if err != nil {
		return 0, 0, err
	}
	if len(p.pending) > 0 {
		return 0, 0, p.errorf("unexpected %q after frame time", p.pending[0])
	}
	return frames, time.Duration(secs * float64(time.Second)), nil
}

// motion reads one line per frame and composes local transforms.
func (p *parser) motion(frames int) ([][]skeleton.Local, error) {
	out := make([][]skeleton.Local, 0, frames)
	values := make([]float64, p.channels)
	for p.sc.Scan() {
		p.line++
		fields := strings.Fields(p.sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(out) == frames {
			return nil, p.errorf("more frame lines than the declared %d", frames)
		}
		if len(fields) != p.channels {
			return nil, p.errorf("frame %d has %d values, want %d", len(out), len(fields), p.channels)
		}
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, p.errorf("bad number %q", f)
			}
			values[i] = v
		}

		locals := make([]skeleton.Local, len(p.joints))
		at := 0
		for j, joint := range p.joints {
			n := len(joint.Channels)
			l, err := skeleton.ComposeLocal(joint.Offset, joint.Channels, values[at:at+n])
			if err != nil {
				return nil, p.errorf("%v", err)
			}
			locals[j] = l
			at += n
		}
		out = append(out, locals)
	}
	if err := p.sc.Err(); err != nil {
		return nil, fmt.Errorf("read bvh: %w", err)
	}
	if len(out) != frames {
		return nil, p.errorf("got %d frame lines, declared %d", len(out), frames)
	}
	return out, nil
}
