/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import "screenwriter/internal/analysis"

// Wire types for the JSON endpoints. Field names follow the backend's
// snake_case contract.

// SynopsisRequest is the body of check-originality and generate-query.
type SynopsisRequest struct {
	Title    string `json:"title"`
	Synopsis string `json:"synopsis"`
}

// SceneRequest carries scene or whole-script text.
type SceneRequest struct {
	SceneText string `json:"scene_text"`
}

// Originality is the check-originality response.
type Originality struct {
	Score           float64 `json:"score"`
	IsBlocked       bool    `json:"is_blocked"`
	MatchText       string  `json:"match_text"`
	CandidatesFound int     `json:"candidates_found"`
}

// ScriptAnalysis is the analyze-script response.
type ScriptAnalysis struct {
	PageCount        int      `json:"page_count"`
	LocationCount    int      `json:"location_count"`
	CharacterCount   int      `json:"character_count"`
	Languages        []string `json:"languages"`
	PotentialMarkets []string `json:"potential_markets"`
	LocationsPreview []string `json:"locations_preview,omitempty"`
}

// SceneMatch describes a famous scene similar to the user's text.
// MatchScore is a percentage.
type SceneMatch struct {
	MatchScore     int    `json:"match_score"`
	Film           string `json:"film"`
	Year           int    `json:"year"`
	Director       string `json:"director"`
	Runtime        string `json:"runtime"`
	SceneTimestamp string `json:"scene_timestamp"`
	Language       string `json:"language"`
	Text           string `json:"text"`
}

// NewSceneMatch converts a local match into its wire form.
func NewSceneMatch(m analysis.SceneMatch) *SceneMatch {
	return &SceneMatch{
		MatchScore:     m.Score,
		Film:           m.Film,
		Year:           m.Year,
		Director:       m.Director,
		Runtime:        m.Runtime,
		SceneTimestamp: m.Timestamp,
		Language:       m.Language,
		Text:           m.Text,
	}
}

// SceneMatchResult is the check-scene-match response. Match is nil when
// nothing cleared the threshold.
type SceneMatchResult struct {
	Match *SceneMatch `json:"match"`
}

// QueryLetter is the generate-query response.
type QueryLetter struct {
	Letter string `json:"letter"`
}

// Storyboard is the generate-storyboard response.
type Storyboard struct {
	ImageURL   string `json:"image_url"`
	PromptUsed string `json:"prompt_used,omitempty"`
}

// Video is the generate-video response.
type Video struct {
	VideoURL string `json:"video_url"`
	Style    string `json:"style,omitempty"`
}

// Endpoint paths.
const (
	PathCheckOriginality   = "/api/check-originality"
	PathAnalyzeScript      = "/api/analyze-script"
	PathCheckSceneMatch    = "/api/check-scene-match"
	PathGenerateQuery      = "/api/generate-query"
	PathGenerateStoryboard = "/api/generate-storyboard"
	PathGenerateVideo      = "/api/generate-video"
	PathAuthToken          = "/api/auth/token"
)
