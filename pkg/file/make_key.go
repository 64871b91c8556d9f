package file

// SourceFilename is the on-disk name of a video's source upload. It is
// derived from the video ID only, so two uploads never share a file.
func SourceFilename(videoID, ext string) string {
	return videoID + "." + NormalizeExtension(ext)
}
