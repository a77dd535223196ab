package models

// FriendPair is an undirected friendship edge. A and B are ordered so that
// A < B, which makes two pairs built from the same users compare equal.
// Storage keeps it as two directed rows; both exist or neither does.
type FriendPair struct {
	A int64
	B int64
}

// NewFriendPair builds the normalized pair for two users
func NewFriendPair(u, v int64) FriendPair {
	if u > v {
		u, v = v, u
	}
	return FriendPair{A: u, B: v}
}

// IsLoop is true when both ends are the same user
func (p FriendPair) IsLoop() bool {
	return p.A == p.B
}
