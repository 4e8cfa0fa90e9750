//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// MediaType represents the kind of media carried by an attachment
// ENUM(audio,document,photo,video,voice)
type MediaType string

// AppEnv represents the application environment
// ENUM(local,production,development,testing)
type AppEnv string
