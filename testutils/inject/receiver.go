package inject

import (
	"github.com/robotloc/visionfusion/receiver"
)

// Receiver is an injected detection camera receiver.
type Receiver struct {
	receiver.Receiver
	TargetPresentFunc   func() bool
	HorizontalAngleFunc func() float64
	VerticalAngleFunc   func() float64
	TagIDFunc           func() int
	LatencyFunc         func() float64
	FieldPoseArrayFunc  func(alliance receiver.Alliance) []float64
	AllianceFunc        func() receiver.Alliance
}

// NewReceiver returns an injected receiver that sees nothing unless a func is injected.
func NewReceiver() *Receiver {
	return &Receiver{Receiver: receiver.NewSnapshot()}
}

// TargetPresent calls the injected TargetPresent or the real version.
func (r *Receiver) TargetPresent() bool {
	if r.TargetPresentFunc == nil {
		return r.Receiver.TargetPresent()
	}
	return r.TargetPresentFunc()
}

// HorizontalAngle calls the injected HorizontalAngle or the real version.
func (r *Receiver) HorizontalAngle() float64 {
	if r.HorizontalAngleFunc == nil {
		return r.Receiver.HorizontalAngle()
	}
	return r.HorizontalAngleFunc()
}

// VerticalAngle calls the injected VerticalAngle or the real version.
func (r *Receiver) VerticalAngle() float64 {
	if r.VerticalAngleFunc == nil {
		return r.Receiver.VerticalAngle()
	}
	return r.VerticalAngleFunc()
}

// TagID calls the injected TagID or the real version.
func (r *Receiver) TagID() int {
	if r.TagIDFunc == nil {
		return r.Receiver.TagID()
	}
	return r.TagIDFunc()
}

// Latency calls the injected Latency or the real version.
func (r *Receiver) Latency() float64 {
	if r.LatencyFunc == nil {
		return r.Receiver.Latency()
	}
	return r.LatencyFunc()
}

// FieldPoseArray calls the injected FieldPoseArray or the real version.
func (r *Receiver) FieldPoseArray(alliance receiver.Alliance) []float64 {
	if r.FieldPoseArrayFunc == nil {
		return r.Receiver.FieldPoseArray(alliance)
	}
	return r.FieldPoseArrayFunc(alliance)
}

// Alliance calls the injected Alliance or the real version.
func (r *Receiver) Alliance() receiver.Alliance {
	if r.AllianceFunc == nil {
		return r.Receiver.Alliance()
	}
	return r.AllianceFunc()
}
