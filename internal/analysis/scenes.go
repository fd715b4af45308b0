/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package analysis

import "math"

// Film is a reference film used for originality checks.
type Film struct {
	Title    string
	Year     int
	Director string
	Runtime  string
	Language string
	Overview string
}

// Scene is a famous scene used for scene matching.
type Scene struct {
	Film      string
	Year      int
	Director  string
	Runtime   string
	Language  string
	Timestamp string
	Text      string
}

// SceneMatch is a scene that cleared the match threshold. Score is a
// rounded percentage.
type SceneMatch struct {
	Scene
	Score int
}

const (
	// MinSceneText is the shortest text worth matching.
	MinSceneText = 20
	// MatchThreshold is the minimum similarity for a scene match.
	MatchThreshold = 0.6
)

// FindMatchingScene returns the most similar scene when its similarity is at
// least threshold, or nil. Texts shorter than MinSceneText never match.
func FindMatchingScene(text string, scenes []Scene, threshold float64) *SceneMatch {
	if len(text) < MinSceneText {
		return nil
	}
	var best *Scene
	var high float64
	for i := range scenes {
		if s := Similarity(text, scenes[i].Text); s > high {
			high, best = s, &scenes[i]
		}
	}
	if best == nil || high < threshold {
		return nil
	}
	return &SceneMatch{Scene: *best, Score: matchPercent(high)}
}

// matchPercent converts a similarity to a whole percentage, halves to even.
func matchPercent(similarity float64) int {
	return int(math.RoundToEven(similarity * 100))
}

// DefaultFilms is the built-in reference catalog.
func DefaultFilms() []Film {
	return []Film{
		{"The Godfather", 1972, "Francis Ford Coppola", "2h 55m", "English", "The aging patriarch of an organized crime dynasty transfers control of his clandestine empire to his reluctant youngest son."},
		{"Taxi Driver", 1976, "Martin Scorsese", "1h 54m", "English", "A mentally unstable veteran works as a nighttime taxi driver in New York City, where the perceived decadence and sleaze fuels his urge for violent action."},
		{"Pulp Fiction", 1994, "Quentin Tarantino", "2h 34m", "English", "The lives of two mob hitmen, a boxer, a gangster and his wife, and a pair of diner bandits intertwine in four tales of violence and redemption."},
		{"The Dark Knight", 2008, "Christopher Nolan", "2h 32m", "English", "When the menace known as the Joker wreaks havoc and chaos on the people of Gotham, Batman must accept one of the greatest tests of his ability to fight injustice."},
		{"Fight Club", 1999, "David Fincher", "2h 19m", "English", "An insomniac office worker and a devil-may-care soap maker form an underground fight club that evolves into much more."},
		{"Casablanca", 1942, "Michael Curtiz", "1h 42m", "English", "A cynical expatriate American cafe owner struggles to decide whether or not to help his former lover and her fugitive husband escape the Nazis in French Morocco."},
		{"Star Wars: Episode V - The Empire Strikes Back", 1980, "Irvin Kershner", "2h 4m", "English", "After the Rebels are overpowered by the Empire, Luke Skywalker begins his Jedi training with Yoda, while his friends are pursued across the galaxy by Darth Vader."},
		{"La La Land", 2016, "Damien Chazelle", "2h 8m", "English", "While navigating their careers in Los Angeles, a pianist and an actress fall in love while attempting to reconcile their aspirations for the future."},
	}
}

// DefaultScenes is the built-in famous scene catalog.
func DefaultScenes() []Scene {
	return []Scene{
		{"The Godfather", 1972, "Francis Ford Coppola", "2h 55m", "English", "00:28:15", "I'm going to make him an offer he can't refuse. One day, and this day may never come, I will call upon you to do a service for me."},
		{"Taxi Driver", 1976, "Martin Scorsese", "1h 54m", "English", "00:35:40", "You talkin' to me? You talkin' to me? Then who the hell else are you talkin' to? You talkin' to me? Well, I'm the only one here."},
		{"Pulp Fiction", 1994, "Quentin Tarantino", "2h 34m", "English", "00:18:22", "The path of the righteous man is beset on all sides by the inequities of the selfish and the tyranny of evil men. Blessed is he who, in the name of charity and good will, shepherds the weak through the valley of the darkness."},
		{"The Dark Knight", 2008, "Christopher Nolan", "2h 32m", "English", "00:05:10", "I believe whatever doesn't kill you, simply makes you... stranger."},
		{"Fight Club", 1999, "David Fincher", "2h 19m", "English", "01:12:05", "The first rule of Fight Club is: You do not talk about Fight Club. The second rule of Fight Club is: You do not talk about Fight Club."},
		{"Casablanca", 1942, "Michael Curtiz", "1h 42m", "English", "01:38:55", "Here's looking at you, kid."},
		{"Star Wars: Episode V - The Empire Strikes Back", 1980, "Irvin Kershner", "2h 4m", "English", "01:51:30", "No. I am your father. That's not true. That's impossible! Search your feelings, you know it to be true."},
		{"La La Land", 2016, "Damien Chazelle", "2h 8m", "English", "01:05:22", "City of stars, are you shining just for me? City of stars, there's so much that I can't see."},
	}
}
