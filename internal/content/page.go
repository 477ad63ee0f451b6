package content

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/causaview/causaview/internal/httputil"
	"github.com/causaview/causaview/internal/languages"
)

var viewerPageTemplate = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}} | causaview</title>
    <style nonce="{{.Nonce}}">
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            background: #0e0e0e;
            color: #ffffff;
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
        }
        #viewer {
            display: flex;
            flex-direction: row;
            width: 100%;
            height: 600px;
        }
        #video-pane {
            flex: 1;
            padding: 10px;
            display: flex;
            flex-direction: column;
        }
        #player { flex: 1; width: 100%; background: #000; border-radius: 6px; }
        #transcript-pane {
            flex: 1;
            padding: 10px;
            overflow-y: auto;
        }
        .sentence {
            cursor: pointer;
            padding: 5px;
            margin: 5px 0;
            transition: background-color 0.3s, color 0.3s;
        }
        .sentence:hover { background-color: #444; }
        .sentence.unmatched { color: grey; font-style: italic; }
        .sentence.selected-matched { background-color: yellow; color: black; }
        .sentence.selected-unmatched { background-color: grey; color: black; }
        .sentence.predecessor { background-color: lightgreen; color: black; }
        .sentence.successor { background-color: lightblue; color: black; }
        #graph-pane { padding: 10px; }
        #graph {
            display: flex;
            align-items: center;
            justify-content: center;
            flex-wrap: wrap;
            gap: 10px;
        }
        .node {
            padding: 10px;
            background-color: #444;
            border-radius: 5px;
            text-align: center;
            max-width: 200px;
        }
        .node.current { background-color: yellow; color: black; }
        .node.predecessors { background-color: lightgreen; color: black; }
        .node.successors { background-color: lightblue; color: black; }
        .connector { margin: 0 5px; font-size: 24px; }
        .warning { padding: 10px; color: #e0b040; font-size: 0.9rem; }
    </style>
</head>
<body>
    <div id="viewer">
        <div id="video-pane">
            <video id="player" controls>
                <source src="{{.VideoURL}}" type="video/mp4">
                Your browser does not support video playback.
            </video>
        </div>
        <div id="transcript-pane">
            {{range .Segments}}<p class="sentence{{if not .Matched}} unmatched{{end}}" data-index="{{.Index}}">{{.Text}}</p>
            {{end}}
        </div>
    </div>
    {{if .CausalEnabled}}
    <div id="graph-pane">
        <h3>Causal relationship graph</h3>
        <div id="graph"></div>
    </div>
    {{end}}
    {{range .Warnings}}<p class="warning">{{.}}</p>
    {{end}}
    <script nonce="{{.Nonce}}">
    var sessionID = {{.SessionID}};
    var video = document.getElementById('player');
    var sentences = document.querySelectorAll('.sentence');
    var graph = document.getElementById('graph');
    var stateClasses = ['selected-matched', 'selected-unmatched', 'predecessor', 'successor'];
    var pending = false;

    function paint(snapshot) {
        sentences.forEach(function (el) {
            stateClasses.forEach(function (c) { el.classList.remove(c); });
            var cls = snapshot.classes[parseInt(el.dataset.index, 10)];
            if (cls && cls !== 'none') {
                el.classList.add(cls);
            }
        });
        if (graph) {
            graph.innerHTML = '';
            var groups = (snapshot.graph && snapshot.graph.groups) || [];
            groups.forEach(function (group, gi) {
                if (gi > 0) {
                    var arrow = document.createElement('div');
                    arrow.classList.add('connector');
                    arrow.textContent = '→';
                    graph.appendChild(arrow);
                }
                group.nodes.forEach(function (node) {
                    var el = document.createElement('div');
                    el.classList.add('node', group.kind);
                    el.textContent = node.label;
                    graph.appendChild(el);
                });
            });
        }
        if (snapshot.seek !== undefined && snapshot.seek !== null) {
            video.currentTime = snapshot.seek;
            video.play();
        }
    }

    function send(event) {
        if (pending) { return; }
        pending = true;
        fetch('/api/sessions/' + sessionID + '/events', {
            method: 'POST',
            headers: {'Content-Type': 'application/json'},
            body: JSON.stringify(event)
        }).then(function (res) {
            if (res.ok) { return res.json().then(paint); }
        }).finally(function () { pending = false; });
    }

    sentences.forEach(function (el) {
        el.addEventListener('click', function () {
            send({type: 'click', index: parseInt(el.dataset.index, 10)});
        });
    });
    video.addEventListener('timeupdate', function () {
        send({type: 'timeupdate', seconds: video.currentTime});
    });
    video.addEventListener('seeked', function () {
        send({type: 'seeked', seconds: video.currentTime});
    });
    </script>
</body>
</html>`))

type viewerPageData struct {
	Title         string
	VideoURL      string
	Segments      []pageSegment
	CausalEnabled bool
	Warnings      []string
	SessionID     string
	Nonce         string
}

type pageSegment struct {
	Index   int
	Text    string
	Matched bool
}

// ViewerPage renders the synchronized viewer: video, clickable transcript
// and, for causally annotated content, the graph strip. The page opens a
// server-side session and drives it with the player's events.
func (h *Handler) ViewerPage(w http.ResponseWriter, r *http.Request) {
	language := chi.URLParam(r, "language")
	videoFile := chi.URLParam(r, "video")
	if !languages.IsCorpusLanguage(language) {
		http.NotFound(w, r)
		return
	}

	it, err := h.lookupItem(r.Context(), language, videoFile)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if it == nil {
		http.NotFound(w, r)
		return
	}
	if !h.unlocked(r, it) {
		http.Error(w, "password required", http.StatusForbidden)
		return
	}

	causalRequested := r.URL.Query().Get("causal") == "true"
	view, status, msg := h.resolveView(r, it, causalRequested)
	if view == nil {
		http.Error(w, msg, status)
		return
	}

	session, err := viewerSessionFor(view, h.strictRender)
	if err != nil {
		http.Error(w, "content feeds are inconsistent", http.StatusBadGateway)
		return
	}
	sessionID, err := h.sessions.Add(session)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.recordView(r, it.ID, view.CausalEnabled)

	segments := make([]pageSegment, 0, len(view.Segments))
	for _, seg := range view.Segments {
		segments = append(segments, pageSegment{Index: seg.Index, Text: seg.Text, Matched: seg.Matched})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := viewerPageTemplate.Execute(w, viewerPageData{
		Title:         it.Title,
		VideoURL:      view.VideoURL,
		Segments:      segments,
		CausalEnabled: view.CausalEnabled,
		Warnings:      view.Warnings,
		SessionID:     sessionID,
		Nonce:         httputil.NonceFromContext(r.Context()),
	}); err != nil {
		slog.Error("content: failed to render viewer page", "error", err)
	}
}
