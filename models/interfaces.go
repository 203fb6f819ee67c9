package models

import "context"

// Responder produces a reply without leaving the process.
type Responder interface {
	Respond(userText string) Reply
}

// RemoteSession is one long-lived conversation with the generative model.
// Each Send is exactly one request/response turn.
type RemoteSession interface {
	Send(ctx context.Context, userText string) (Reply, error)
}

// RemoteDialer opens new remote sessions. Implementations return
// ErrConfigurationMissing when they cannot be used at all.
type RemoteDialer interface {
	Dial(ctx context.Context) (RemoteSession, error)
}

// UnavailableDialer is a RemoteDialer that always fails with Err
// (ErrConfigurationMissing when Err is nil).
type UnavailableDialer struct {
	Err error
}

func (d UnavailableDialer) Dial(context.Context) (RemoteSession, error) {
	if d.Err == nil {
		return nil, ErrConfigurationMissing
	}
	return nil, d.Err
}
