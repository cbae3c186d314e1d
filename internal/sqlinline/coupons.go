package sqlinline

const QInsertCoupon = `--sql 541707dd-3a99-4a43-9e49-b5a08a079c58
insert into coupons (id, code, credits, max_redemptions, redeemed, expires_at, created_at)
values (gen_random_uuid(), upper($1::text), $2::int, $3::int, 0, $4::timestamptz, now())
returning id, code, credits, max_redemptions, redeemed, expires_at, created_at;
`

const QSelectCoupons = `--sql 128acb17-b0bf-4d74-a83f-5ccc65120eae
select id, code, credits, max_redemptions, redeemed, expires_at, created_at
from coupons
order by created_at desc;
`

const QRedeemCoupon = `--sql 024875ed-4502-4386-8534-a2ee3a30129b
with claimed as (
    update coupons
    set redeemed = redeemed + 1
    where code = upper($1::text)
      and redeemed < max_redemptions
      and (expires_at is null or expires_at > now())
    returning id, credits
)
insert into coupon_redemptions (id, coupon_id, profile_id, created_at)
select gen_random_uuid(), id, $2::uuid, now()
from claimed
returning (select credits from claimed);
`
