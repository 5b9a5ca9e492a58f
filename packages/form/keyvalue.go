package form

// DefaultContentType is used for file parts when no type was given.
const DefaultContentType = "*/*"

// DetectContentType asks the multipart encoder to sniff the file's MIME type.
const DetectContentType = "auto"

// KeyValue is one form field or one file attachment.
type KeyValue struct {
	Key   string
	Value string
	// FilePath is empty for plain fields. For attachments Value carries the
	// file name sent to the server and the content is read from FilePath.
	FilePath    string
	ContentType string
}

// Field returns a plain form field.
func Field(key, value string) KeyValue {
	return KeyValue{Key: key, Value: value, ContentType: DefaultContentType}
}

// File returns a file attachment sent as */*.
func File(key, fileName, filePath string) KeyValue {
	return FileWithType(key, fileName, filePath, DefaultContentType)
}

// FileWithType returns a file attachment with an explicit content type.
func FileWithType(key, fileName, filePath, contentType string) KeyValue {
	if contentType == "" {
		contentType = DefaultContentType
	}
	return KeyValue{Key: key, Value: fileName, FilePath: filePath, ContentType: contentType}
}

// IsFile reports whether the pair is a file attachment.
func (kv KeyValue) IsFile() bool {
	return kv.FilePath != ""
}

// HasFiles reports whether any pair is a file attachment.
func HasFiles(pairs []KeyValue) bool {
	for _, kv := range pairs {
		if kv.IsFile() {
			return true
		}
	}
	return false
}
