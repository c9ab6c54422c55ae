package types

import "strings"

// BucketPermission grants a group access to a bucket with the credentials used
// to list it.
type BucketPermission struct {
	Group     string `key:"group" json:"group"`
	Bucket    string `key:"bucket" json:"bucket"`
	AccessId  string `key:"accessId" json:"access_id"`
	AccessKey string `key:"accessKey" json:"-"`
	Shareable bool   `key:"shareable" json:"shareable"`
}

// NormalizedBucket is the bucket name used in allowed/shareable sets.
func (p BucketPermission) NormalizedBucket() string {
	return strings.ToLower(p.Bucket)
}

// UserIdentity is the authenticated caller as seen by the metadata cache.
type UserIdentity struct {
	UserId string   `json:"user_id"`
	Groups []string `json:"groups"`
}
