package constants

const (
	// IDRandomBytes is the number of random bytes in generated entity IDs.
	// IDs look like "usr_9f86d081884c7d65".
	IDRandomBytes = 8

	CommentMaxLength    = 2000
	CommentPageMaxLimit = 100
	VideoTitleMaxLength = 200
	VideoDescMaxLength  = 5000
)
