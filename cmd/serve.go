package cmd

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jsphweid/satbsplit/constants"
	"github.com/jsphweid/satbsplit/musicxml"
	"github.com/jsphweid/satbsplit/output"
	"github.com/jsphweid/satbsplit/pipeline"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the splitter over HTTP",
	Long:  `Serves the splitter over HTTP`,
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

// HandleSplit accepts a MusicXML document as the request body and responds
// with a zip archive containing the four voice parts.
func HandleSplit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "could not read request body", http.StatusBadRequest)
		return
	}

	base := r.URL.Query().Get("name")
	if base == "" {
		base = "score"
	}

	score, err := musicxml.Decode(bytes.NewReader(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := pipeline.Run(score, base, pipeline.DefaultOptions())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range constants.VoiceNames {
		f, err := zw.Create(output.FileName(base, name))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := musicxml.Encode(f, result.Voices[name]); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	if err := zw.Close(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%v-voices.zip", base))
	w.Write(buf.Bytes())
}

func serve() {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/split", HandleSplit).Methods("POST")

	handler := cors.Default().Handler(router)
	fmt.Printf("Listening on %v\n", serveAddr)
	log.Fatal(http.ListenAndServe(serveAddr, handler))
}
