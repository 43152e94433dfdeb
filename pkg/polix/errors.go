//
//  Copyright © Manetu Inc. All rights reserved.
//

package polix

import "github.com/manetu/polix/pkg/common"

func unknownPolicyError(ns, name string) error {
	return common.NewErrorf(common.ErrKindRuntime, "unknown policy %s/%s", ns, name).
		WithDetail("namespace", ns).
		WithDetail("policy", name)
}
