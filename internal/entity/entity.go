// Package entity holds the typed views of the stored kinds. Field names and
// JSON tags follow the wire documents.
package entity

import "github.com/roach88/signedstore/internal/record"

// Kind names as declared in kinds.cue.
const (
	KindPost     = "post"
	KindComment  = "comment"
	KindLike     = "like"
	KindFavorite = "favorite"
	KindFollower = "follower"
	KindContact  = "contact"
	KindProfile  = "profile"
)

// Reference types of likes and favorites.
const (
	RefPost    = "post"
	RefComment = "comment"
)

// Counter names.
const (
	StatisticView     = "statisticView"
	StatisticRepost   = "statisticRepost"
	StatisticQuote    = "statisticQuote"
	StatisticLike     = "statisticLike"
	StatisticFavorite = "statisticFavorite"
	StatisticReply    = "statisticReply"
)

// Statistics are the server-maintained counters of posts and comments.
type Statistics struct {
	StatisticView     int64 `json:"statisticView"`
	StatisticRepost   int64 `json:"statisticRepost"`
	StatisticQuote    int64 `json:"statisticQuote"`
	StatisticLike     int64 `json:"statisticLike"`
	StatisticFavorite int64 `json:"statisticFavorite"`
	StatisticReply    int64 `json:"statisticReply"`
}

// Content is the authored body shared by posts and comments.
type Content struct {
	AuthorName   string   `json:"authorName"`
	AuthorAvatar string   `json:"authorAvatar"`
	Body         string   `json:"body"`
	Pictures     []string `json:"pictures,omitempty"`
	Videos       []string `json:"videos,omitempty"`
	BitcoinPrice string   `json:"bitcoinPrice,omitempty"`
	Remark       string   `json:"remark,omitempty"`
}

type Post struct {
	record.Meta
	Content
	Statistics
}

type Comment struct {
	record.Meta
	Content
	Statistics
	PostHash string `json:"postHash"`
	ReplyTo  string `json:"replyTo,omitempty"`
}

// Reference points at a post or comment by content hash.
type Reference struct {
	RefType string `json:"refType"`
	RefHash string `json:"refHash"`
	RefBody string `json:"refBody,omitempty"`
	Remark  string `json:"remark,omitempty"`
}

type Like struct {
	record.Meta
	Reference
}

type Favorite struct {
	record.Meta
	Reference
}

type Follower struct {
	record.Meta
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
	Remark  string `json:"remark,omitempty"`
}

type Contact struct {
	record.Meta
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
	Avatar  string `json:"avatar,omitempty"`
	Remark  string `json:"remark,omitempty"`
}

type Profile struct {
	record.Meta
	Key    string `json:"key"`
	Value  string `json:"value"`
	Remark string `json:"remark,omitempty"`
}

// Target returns the collection kind a reference points at.
func (r Reference) Target() string {
	if r.RefType == RefComment {
		return KindComment
	}
	return KindPost
}
